package windows

import (
	"testing"
	"unsafe"
)

func TestRelocate(t *testing.T) {
	const (
		target     = 0x7FFA1000
		trampoline = 0x20000
	)
	tests := []struct {
		ip    uintptr
		want  uintptr
		moved bool
	}{
		{target - 1, target - 1, false},
		{target, trampoline, true},
		{target + 3, trampoline + 3, true},
		{target + jumpSize - 1, trampoline + jumpSize - 1, true},
		{target + jumpSize, target + jumpSize, false},
		{target + 0x12, target + 0x12, false},
	}

	for _, test := range tests {
		ip, moved := relocate(test.ip, target, trampoline)
		if ip != test.want || moved != test.moved {
			t.Errorf("relocate(0x%X) = 0x%X, %t; want 0x%X, %t", test.ip, ip, moved, test.want, test.moved)
		}
	}
}

func TestSuspendFailed(t *testing.T) {
	tests := []struct {
		r      uintptr
		failed bool
	}{
		{0, false},
		{1, false},
		{0x7F, false},
		{0xFFFFFFFF, true},
		{^uintptr(0), true},
	}

	for _, test := range tests {
		if failed := suspendFailed(test.r); failed != test.failed {
			t.Errorf("suspendFailed(0x%X) = %t", test.r, failed)
		}
	}
}

func TestThreadContext(t *testing.T) {
	var c threadContext
	if size := unsafe.Sizeof(c); size != 1232 {
		t.Errorf("wrong CONTEXT size: %d", size)
	}
	if off := unsafe.Offsetof(c.ContextFlags); off != 0x30 {
		t.Errorf("wrong ContextFlags offset: 0x%X", off)
	}
	if off := unsafe.Offsetof(c.Rip); off != 0xF8 {
		t.Errorf("wrong Rip offset: 0x%X", off)
	}

	for i := 0; i < 16; i++ {
		if addr := uintptr(unsafe.Pointer(newThreadContext())); addr%16 != 0 {
			t.Fatalf("context is not aligned: 0x%X", addr)
		}
	}
}
