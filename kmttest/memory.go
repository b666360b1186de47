package kmttest

import (
	"sync"

	"github.com/stealthrocket/kmt-go"
)

// Memory is a fake address space implementing kmt.Memory.
//
// Byte slices mapped in the address space are readable at the address
// returned by Map; every other address is unreadable. Mappings are spaced so
// that reading past the end of one never reaches the next.
type Memory struct {
	mutex   sync.Mutex
	next    kmt.Pointer
	regions []region
}

type region struct {
	addr kmt.Pointer
	data []byte
}

const (
	memoryBase = 0x10000000
	memoryGap  = 0x10000
)

var _ kmt.Memory = (*Memory)(nil)

// Map makes b readable and returns its address. The slice is not copied,
// writes to b are visible to subsequent reads.
func (m *Memory) Map(b []byte) kmt.Pointer {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.next == 0 {
		m.next = memoryBase
	}
	addr := m.next
	m.regions = append(m.regions, region{addr: addr, data: b})
	size := kmt.Pointer(len(b)+memoryGap-1) &^ (memoryGap - 1)
	m.next += size + memoryGap
	return addr
}

// Alloc maps a zeroed buffer of size bytes.
func (m *Memory) Alloc(size int) kmt.Pointer {
	return m.Map(make([]byte, size))
}

// Bytes returns the mapping starting at addr.
func (m *Memory) Bytes(addr kmt.Pointer) []byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, r := range m.regions {
		if r.addr == addr {
			return r.data
		}
	}
	return nil
}

// Unmap makes the mapping starting at addr unreadable.
func (m *Memory) Unmap(addr kmt.Pointer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i, r := range m.regions {
		if r.addr == addr {
			m.regions = append(m.regions[:i], m.regions[i+1:]...)
			return
		}
	}
}

func (m *Memory) Read(addr kmt.Pointer, size uint32) ([]byte, bool) {
	if addr == 0 {
		return nil, false
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, r := range m.regions {
		if addr < r.addr {
			continue
		}
		offset := uint64(addr - r.addr)
		if offset+uint64(size) <= uint64(len(r.data)) {
			return r.data[offset : offset+uint64(size)], true
		}
	}
	return nil, false
}
