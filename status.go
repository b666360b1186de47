package kmt

import "fmt"

// Status is an NTSTATUS code returned by the kernel thunks.
//
// Only the codes commonly returned by the display kernel are named; any
// other value is still carried through unchanged.
type Status uint32

const (
	StatusSuccess                     Status = 0x00000000
	StatusTimeout                     Status = 0x00000102
	StatusPending                     Status = 0x00000103
	StatusInvalidHandle               Status = 0xC0000008
	StatusInvalidParameter            Status = 0xC000000D
	StatusNoMemory                    Status = 0xC0000017
	StatusAccessDenied                Status = 0xC0000022
	StatusBufferTooSmall              Status = 0xC0000023
	StatusNotSupported                Status = 0xC00000BB
	StatusIllegalInstruction          Status = 0xC000001D
	StatusDeviceRemoved               Status = 0xC00002B6
	StatusNotImplemented              Status = 0xC0000002
	StatusGraphicsNoVideoMemory       Status = 0xC01E0100
	StatusGraphicsAllocationBusy      Status = 0xC01E0102
	StatusGraphicsInvalidAllocation   Status = 0xC01E0106
	StatusGraphicsCantLockMemory      Status = 0xC01E0101
	StatusGraphicsDriverMismatch      Status = 0xC01E0009
	StatusGraphicsInvalidDriverModel  Status = 0xC01E0004
	StatusGraphicsAdapterWasReset     Status = 0xC01E0003
	StatusGraphicsInsufficientDMABuff Status = 0xC01E0001
)

// Success returns true if s is STATUS_SUCCESS.
//
// Informational codes such as STATUS_PENDING are not considered successful:
// state reported by a call is only committed when the kernel returned 0.
func (s Status) Success() bool { return s == StatusSuccess }

// Severity returns the two severity bits of the status code (0 success,
// 1 informational, 2 warning, 3 error).
func (s Status) Severity() int { return int(s >> 30) }

// Name returns the symbolic name of the status, or an empty string if the
// code is not known.
func (s Status) Name() string { return statusNames[s] }

func (s Status) String() string {
	if name := s.Name(); name != "" {
		return fmt.Sprintf("0x%08X (%s)", uint32(s), name)
	}
	return fmt.Sprintf("0x%08X", uint32(s))
}

var statusNames = map[Status]string{
	StatusSuccess:                     "STATUS_SUCCESS",
	StatusTimeout:                     "STATUS_TIMEOUT",
	StatusPending:                     "STATUS_PENDING",
	StatusInvalidHandle:               "STATUS_INVALID_HANDLE",
	StatusInvalidParameter:            "STATUS_INVALID_PARAMETER",
	StatusNoMemory:                    "STATUS_NO_MEMORY",
	StatusAccessDenied:                "STATUS_ACCESS_DENIED",
	StatusBufferTooSmall:              "STATUS_BUFFER_TOO_SMALL",
	StatusNotSupported:                "STATUS_NOT_SUPPORTED",
	StatusIllegalInstruction:          "STATUS_ILLEGAL_INSTRUCTION",
	StatusDeviceRemoved:               "STATUS_DEVICE_REMOVED",
	StatusNotImplemented:              "STATUS_NOT_IMPLEMENTED",
	StatusGraphicsNoVideoMemory:       "STATUS_GRAPHICS_NO_VIDEO_MEMORY",
	StatusGraphicsAllocationBusy:      "STATUS_GRAPHICS_ALLOCATION_BUSY",
	StatusGraphicsInvalidAllocation:   "STATUS_GRAPHICS_INVALID_ALLOCATION_HANDLE",
	StatusGraphicsCantLockMemory:      "STATUS_GRAPHICS_CANT_LOCK_MEMORY",
	StatusGraphicsDriverMismatch:      "STATUS_GRAPHICS_DRIVER_MISMATCH",
	StatusGraphicsInvalidDriverModel:  "STATUS_GRAPHICS_INVALID_DRIVER_MODEL",
	StatusGraphicsAdapterWasReset:     "STATUS_GRAPHICS_ADAPTER_WAS_RESET",
	StatusGraphicsInsufficientDMABuff: "STATUS_GRAPHICS_INSUFFICIENT_DMA_BUFFER",
}
