// Package kmt traces calls to the kernel-mode thunks of the Windows display
// driver model (the D3DKMT functions exported as NtGdiDdDDI* by win32u.dll).
//
// The package defines the argument structures of the traced entry points, a
// System interface abstracting the real entry points, and a Tracer which
// wraps a System to print every call and keep track of the command buffers of
// each submission context. Native hooking lives in the systems/windows
// package; this package is portable and does not dereference driver memory
// itself, it reads it through the Memory interface.
package kmt

import "fmt"

// Handle is a D3DKMT_HANDLE, an opaque identifier assigned by the kernel to
// adapters, devices, contexts, allocations and synchronization objects.
type Handle uint32

func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uint32(h))
}

// Pointer is an address in the traced process. The memory it refers to is
// owned by the application or by the driver, never by this package.
type Pointer uintptr

// IsNull returns true if p is the null pointer.
func (p Pointer) IsNull() bool { return p == 0 }

// Add returns the pointer offset by n bytes.
func (p Pointer) Add(n uint32) Pointer { return p + Pointer(n) }

func (p Pointer) String() string {
	if p == 0 {
		return "NULL"
	}
	return fmt.Sprintf("0x%016X", uint64(p))
}

// GraphicsNode is the node ordinal of the graphics engine. Command buffers
// submitted to other engines (copy/SDMA) are dumped but not decoded.
const GraphicsNode = 0

// MaxBroadcastContext is D3DDDI_MAX_BROADCAST_CONTEXT, the capacity of the
// BroadcastContext array of a render call.
const MaxBroadcastContext = 64

// Names of the traced entry points, as exported by win32u.dll.
const (
	CreateAllocationSymbol             = "NtGdiDdDDICreateAllocation"
	CreateContextSymbol                = "NtGdiDdDDICreateContext"
	CreateDeviceSymbol                 = "NtGdiDdDDICreateDevice"
	CreateSynchronizationObjectSymbol  = "NtGdiDdDDICreateSynchronizationObject"
	EscapeSymbol                       = "NtGdiDdDDIEscape"
	LockSymbol                         = "NtGdiDdDDILock"
	QueryAdapterInfoSymbol             = "NtGdiDdDDIQueryAdapterInfo"
	RenderSymbol                       = "NtGdiDdDDIRender"
	SetContextSchedulingPrioritySymbol = "NtGdiDdDDISetContextSchedulingPriority"
)

// Symbols lists the traced entry points in installation order.
var Symbols = [...]string{
	CreateAllocationSymbol,
	CreateContextSymbol,
	CreateDeviceSymbol,
	CreateSynchronizationObjectSymbol,
	EscapeSymbol,
	LockSymbol,
	QueryAdapterInfoSymbol,
	RenderSymbol,
	SetContextSchedulingPrioritySymbol,
}

// Module is the system library exporting the traced entry points.
const Module = "win32u.dll"
