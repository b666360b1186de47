package windows

import "unsafe"

const (
	contextAMD64   = 0x100000
	contextControl = contextAMD64 | 0x1
)

type m128a struct {
	Low  uint64
	High int64
}

// threadContext is the x64 CONTEXT structure.
type threadContext struct {
	P1Home uint64
	P2Home uint64
	P3Home uint64
	P4Home uint64
	P5Home uint64
	P6Home uint64

	ContextFlags uint32
	MxCsr        uint32

	SegCs  uint16
	SegDs  uint16
	SegEs  uint16
	SegFs  uint16
	SegGs  uint16
	SegSs  uint16
	EFlags uint32

	Dr0 uint64
	Dr1 uint64
	Dr2 uint64
	Dr3 uint64
	Dr6 uint64
	Dr7 uint64

	Rax uint64
	Rcx uint64
	Rdx uint64
	Rbx uint64
	Rsp uint64
	Rbp uint64
	Rsi uint64
	Rdi uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	Rip uint64

	FltSave [512]byte

	VectorRegister [26]m128a
	VectorControl  uint64

	DebugControl         uint64
	LastBranchToRip      uint64
	LastBranchFromRip    uint64
	LastExceptionToRip   uint64
	LastExceptionFromRip uint64
}

// newThreadContext allocates a CONTEXT structure aligned to 16 bytes, as
// GetThreadContext requires.
func newThreadContext() *threadContext {
	buf := make([]byte, unsafe.Sizeof(threadContext{})+15)
	off := (16 - uintptr(unsafe.Pointer(&buf[0]))%16) % 16
	return (*threadContext)(unsafe.Pointer(&buf[off]))
}

// relocate maps an instruction pointer inside the bytes of target replaced by
// the jump to the same instruction in the trampoline.
func relocate(ip, target, trampoline uintptr) (uintptr, bool) {
	if ip < target || ip >= target+jumpSize {
		return ip, false
	}
	return trampoline + (ip - target), true
}

// suspendFailed reports whether r, as returned by SuspendThread, is the
// (DWORD)-1 error value.
func suspendFailed(r uintptr) bool {
	return uint32(r) == 0xFFFFFFFF
}
