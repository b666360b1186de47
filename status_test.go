package kmt_test

import (
	"testing"

	"github.com/stealthrocket/kmt-go"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status   kmt.Status
		success  bool
		severity int
		str      string
	}{
		{kmt.StatusSuccess, true, 0, "0x00000000 (STATUS_SUCCESS)"},
		{kmt.StatusPending, false, 0, "0x00000103 (STATUS_PENDING)"},
		{kmt.StatusInvalidHandle, false, 3, "0xC0000008 (STATUS_INVALID_HANDLE)"},
		{kmt.Status(0x80000005), false, 2, "0x80000005"},
		{kmt.Status(0x40000000), false, 1, "0x40000000"},
	}

	for _, test := range tests {
		t.Run(test.str, func(t *testing.T) {
			assertEqual(t, test.status.Success(), test.success)
			assertEqual(t, test.status.Severity(), test.severity)
			assertEqual(t, test.status.String(), test.str)
		})
	}
}
