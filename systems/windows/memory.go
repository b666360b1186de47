//go:build windows

package windows

import (
	"unsafe"

	"github.com/stealthrocket/kmt-go"
	syswindows "golang.org/x/sys/windows"
)

// Memory reads the address space of the current process.
//
// Ranges are validated with VirtualQuery before being read, so a bogus
// pointer or size in a traced structure yields an unreadable buffer instead
// of an access violation. Memory released by another thread between the
// check and the read can still fault.
type Memory struct{}

var _ kmt.Memory = Memory{}

func (Memory) Read(addr kmt.Pointer, size uint32) ([]byte, bool) {
	if addr == 0 {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	if !readable(uintptr(addr), uintptr(size)) {
		return nil, false
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size), true
}

func readable(addr, size uintptr) bool {
	end := addr + size
	if end < addr {
		return false
	}
	for addr < end {
		var info syswindows.MemoryBasicInformation
		if err := syswindows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
			return false
		}
		if !readableRegion(info.State, info.Protect) {
			return false
		}
		next := info.BaseAddress + info.RegionSize
		if next <= addr {
			return false
		}
		addr = next
	}
	return true
}

// ThreadID returns the identifier of the calling thread.
func ThreadID() uint32 {
	return syswindows.GetCurrentThreadId()
}
