package windows

import (
	"encoding/binary"
	"fmt"
)

// The win32u.dll thunks are system call stubs of the following form:
//
//	4C 8B D1                   mov r10, rcx
//	B8 xx xx xx xx             mov eax, <service number>
//	F6 04 25 08 03 FE 7F 01    test byte ptr [7FFE0308h], 1
//	75 03                      jne +3
//	0F 05                      syscall
//	C3                         ret
//	CD 2E                      int 2Eh
//	C3                         ret
//
// The stub does not reference its own address, so a copy of it placed
// anywhere in memory behaves like the original.
var syscallStub = [stubSize]byte{
	0x4C, 0x8B, 0xD1,
	0xB8, 0x00, 0x00, 0x00, 0x00,
	0xF6, 0x04, 0x25, 0x08, 0x03, 0xFE, 0x7F, 0x01,
	0x75, 0x03,
	0x0F, 0x05,
	0xC3,
	0xCD, 0x2E,
	0xC3,
}

const (
	stubSize = 24
	// offset and length of the service number in the stub
	serviceOffset = 4
	serviceLength = 4
	// mov rax, imm64; jmp rax
	jumpSize = 12
)

// UnsupportedStubError is returned when the code of a target does not match
// the expected system call stub.
type UnsupportedStubError struct {
	Code [stubSize]byte
}

func (e *UnsupportedStubError) Error() string {
	return fmt.Sprintf("unexpected code % X", e.Code[:])
}

// checkStub verifies that code is a system call stub and returns its service
// number.
func checkStub(code []byte) (uint32, error) {
	if len(code) < stubSize {
		return 0, fmt.Errorf("short stub: %d bytes", len(code))
	}
	for i, b := range syscallStub {
		if i >= serviceOffset && i < serviceOffset+serviceLength {
			continue
		}
		if code[i] != b {
			e := new(UnsupportedStubError)
			copy(e.Code[:], code)
			return 0, e
		}
	}
	return binary.LittleEndian.Uint32(code[serviceOffset:]), nil
}

// encodeJump writes an absolute jump to addr into b, which must be at least
// jumpSize bytes long. The jump clobbers rax, which the stub overwrites
// anyway.
func encodeJump(b []byte, addr uintptr) {
	_ = b[jumpSize-1]
	b[0], b[1] = 0x48, 0xB8
	binary.LittleEndian.PutUint64(b[2:], uint64(addr))
	b[10], b[11] = 0xFF, 0xE0
}
