//go:build windows && amd64

package windows

import (
	"context"
	"syscall"
	"unsafe"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/kmt-go/hook"
)

// System calls the unmodified win32u.dll entry points through the
// trampolines installed by a hook transaction.
//
// The zero value is not usable: the addresses are filled in when the hooks
// returned by Hooks are committed.
type System struct {
	createAllocation             uintptr
	createContext                uintptr
	createDevice                 uintptr
	createSynchronizationObject  uintptr
	escape                       uintptr
	lock                         uintptr
	queryAdapterInfo             uintptr
	render                       uintptr
	setContextSchedulingPriority uintptr
}

var _ kmt.System = (*System)(nil)

func call(fn uintptr, arg unsafe.Pointer) kmt.Status {
	r, _, _ := syscall.SyscallN(fn, uintptr(arg))
	return kmt.Status(uint32(r))
}

func (s *System) CreateAllocation(ctx context.Context, arg *kmt.CreateAllocation) kmt.Status {
	return call(s.createAllocation, unsafe.Pointer(arg))
}

func (s *System) CreateContext(ctx context.Context, arg *kmt.CreateContext) kmt.Status {
	return call(s.createContext, unsafe.Pointer(arg))
}

func (s *System) CreateDevice(ctx context.Context, arg *kmt.CreateDevice) kmt.Status {
	return call(s.createDevice, unsafe.Pointer(arg))
}

func (s *System) CreateSynchronizationObject(ctx context.Context, arg *kmt.CreateSynchronizationObject) kmt.Status {
	return call(s.createSynchronizationObject, unsafe.Pointer(arg))
}

func (s *System) Escape(ctx context.Context, arg *kmt.Escape) kmt.Status {
	return call(s.escape, unsafe.Pointer(arg))
}

func (s *System) Lock(ctx context.Context, arg *kmt.Lock) kmt.Status {
	return call(s.lock, unsafe.Pointer(arg))
}

func (s *System) QueryAdapterInfo(ctx context.Context, arg *kmt.QueryAdapterInfo) kmt.Status {
	return call(s.queryAdapterInfo, unsafe.Pointer(arg))
}

func (s *System) Render(ctx context.Context, arg *kmt.Render) kmt.Status {
	return call(s.render, unsafe.Pointer(arg))
}

func (s *System) SetContextSchedulingPriority(ctx context.Context, arg *kmt.SetContextSchedulingPriority) kmt.Status {
	return call(s.setContextSchedulingPriority, unsafe.Pointer(arg))
}

// Hooks returns the hook table routing the nine entry points to target, which
// is usually a kmt.Tracer wrapping s.
//
// The replacements are native callbacks: the kernel thunks take a single
// pointer argument and return an NTSTATUS, which maps directly onto the
// callback calling convention.
func (s *System) Hooks(target kmt.System) []hook.Hook {
	ctx := context.Background()
	return []hook.Hook{
		{
			Symbol:   kmt.CreateAllocationSymbol,
			Original: &s.createAllocation,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.CreateAllocation(ctx, (*kmt.CreateAllocation)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.CreateContextSymbol,
			Original: &s.createContext,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.CreateContext(ctx, (*kmt.CreateContext)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.CreateDeviceSymbol,
			Original: &s.createDevice,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.CreateDevice(ctx, (*kmt.CreateDevice)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.CreateSynchronizationObjectSymbol,
			Original: &s.createSynchronizationObject,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.CreateSynchronizationObject(ctx, (*kmt.CreateSynchronizationObject)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.EscapeSymbol,
			Original: &s.escape,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.Escape(ctx, (*kmt.Escape)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.LockSymbol,
			Original: &s.lock,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.Lock(ctx, (*kmt.Lock)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.QueryAdapterInfoSymbol,
			Original: &s.queryAdapterInfo,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.QueryAdapterInfo(ctx, (*kmt.QueryAdapterInfo)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.RenderSymbol,
			Original: &s.render,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.Render(ctx, (*kmt.Render)(unsafe.Pointer(arg))))
			}),
		},
		{
			Symbol:   kmt.SetContextSchedulingPrioritySymbol,
			Original: &s.setContextSchedulingPriority,
			Replacement: syscall.NewCallback(func(arg uintptr) uintptr {
				return uintptr(target.SetContextSchedulingPriority(ctx, (*kmt.SetContextSchedulingPriority)(unsafe.Pointer(arg))))
			}),
		},
	}
}
