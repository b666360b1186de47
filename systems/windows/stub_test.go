package windows

import (
	"errors"
	"testing"
)

func TestCheckStub(t *testing.T) {
	code := syscallStub
	code[serviceOffset] = 0x8D
	code[serviceOffset+1] = 0x12

	service, err := checkStub(code[:])
	if err != nil {
		t.Fatal(err)
	}
	if service != 0x128D {
		t.Errorf("wrong service number: 0x%X", service)
	}
}

func TestCheckStubHooked(t *testing.T) {
	code := syscallStub
	encodeJump(code[:], 0x7FF612345678)

	_, err := checkStub(code[:])
	var unsupported *UnsupportedStubError
	if !errors.As(err, &unsupported) {
		t.Fatalf("wrong error: %v", err)
	}
	if unsupported.Code != code {
		t.Errorf("error does not carry the code: % X", unsupported.Code)
	}
}

func TestCheckStubShort(t *testing.T) {
	if _, err := checkStub(syscallStub[:stubSize-1]); err == nil {
		t.Error("short stub accepted")
	}
}

func TestEncodeJump(t *testing.T) {
	var b [jumpSize]byte
	encodeJump(b[:], 0x1122334455667788)

	want := [jumpSize]byte{0x48, 0xB8, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0xFF, 0xE0}
	if b != want {
		t.Errorf("wrong encoding: % X", b[:])
	}
}
