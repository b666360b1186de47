package kmt

import "context"

// System is the set of traced kernel thunks.
//
// Each method receives the caller's argument structure, which the
// implementation may update with output values, and returns the NTSTATUS of
// the call. Implementations are called concurrently from any thread of the
// traced process.
type System interface {
	// CreateAllocation creates one or more allocations, optionally grouped
	// under a resource.
	//
	// Note: This is D3DKMTCreateAllocation2.
	CreateAllocation(ctx context.Context, arg *CreateAllocation) Status

	// CreateContext creates a submission context on a node (engine) of a
	// device. On success the kernel assigns the context handle and the
	// initial command buffer, allocation list and patch-location list.
	CreateContext(ctx context.Context, arg *CreateContext) Status

	// CreateDevice creates a device on an adapter.
	CreateDevice(ctx context.Context, arg *CreateDevice) Status

	// CreateSynchronizationObject creates a fence, mutex or semaphore.
	//
	// Note: This is D3DKMTCreateSynchronizationObject2.
	CreateSynchronizationObject(ctx context.Context, arg *CreateSynchronizationObject) Status

	// Escape passes private data between the user-mode and the kernel-mode
	// driver, similar to an ioctl.
	Escape(ctx context.Context, arg *Escape) Status

	// Lock maps an allocation for CPU access. The call may block until the
	// GPU is done with the allocation.
	Lock(ctx context.Context, arg *Lock) Status

	// QueryAdapterInfo reads information about an adapter, the format of
	// which is selected by the query type.
	QueryAdapterInfo(ctx context.Context, arg *QueryAdapterInfo) Status

	// Render submits a window of the context's command buffer to the GPU.
	// On return the kernel reports the buffers to use for the next
	// submission, which may have been relocated.
	Render(ctx context.Context, arg *Render) Status

	// SetContextSchedulingPriority changes the priority of a context.
	SetContextSchedulingPriority(ctx context.Context, arg *SetContextSchedulingPriority) Status
}
