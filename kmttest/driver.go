package kmttest

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/stealthrocket/kmt-go"
)

// Driver is a simulation of the display kernel implementing kmt.System.
//
// It hands out handles and driver buffers mapped in Memory, rotates the
// buffers of a context on every submission the way the kernel does, and
// records the command buffer windows it receives.
type Driver struct {
	// Memory receives the buffers handed out by the driver and is used to
	// access the buffers passed by the caller. It must not be nil.
	Memory *Memory

	// Fail maps entry point names to a status returned without performing
	// the call. It must not be modified while the driver is in use.
	Fail map[string]kmt.Status

	// OnCall, if not nil, is called at the beginning of every call.
	OnCall func(ctx context.Context, symbol string)

	// CommandBufferSize is the size of the command buffers handed out.
	// Zero means DefaultCommandBufferSize.
	CommandBufferSize uint32

	mutex       sync.Mutex
	lastHandle  kmt.Handle
	contexts    map[kmt.Handle]*ContextState
	submissions []Submission
	calls       map[string]int
}

const (
	DefaultCommandBufferSize = 0x1000
	AllocationListEntries    = 0x100
	PatchLocationEntries     = 0x100

	firstHandle  = 0x40000000
	handleStride = 0x40
	gpuBase      = 0x800000000
)

// ContextState is the driver side state of a context.
type ContextState struct {
	Device            kmt.Handle
	NodeOrdinal       uint32
	CommandBuffer     kmt.Pointer
	AllocationList    kmt.Pointer
	PatchLocationList kmt.Pointer
	Submissions       uint32
}

// Submission is a command buffer window received by Render.
type Submission struct {
	Context kmt.Handle
	Words   []uint32
}

var _ kmt.System = (*Driver)(nil)

// NewDriver returns a driver mapping its buffers in mem.
func NewDriver(mem *Memory) *Driver {
	return &Driver{Memory: mem}
}

func (d *Driver) enter(ctx context.Context, symbol string) (kmt.Status, bool) {
	if d.OnCall != nil {
		d.OnCall(ctx, symbol)
	}
	d.mutex.Lock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[symbol]++
	d.mutex.Unlock()
	status, fail := d.Fail[symbol]
	return status, fail
}

// Calls returns the number of calls received for the named entry point.
func (d *Driver) Calls(symbol string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.calls[symbol]
}

// Context returns the state of the context h.
func (d *Driver) Context(h kmt.Handle) (ContextState, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	c, ok := d.contexts[h]
	if !ok {
		return ContextState{}, false
	}
	return *c, true
}

// Submissions returns the command buffer windows received so far.
func (d *Driver) Submissions() []Submission {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]Submission(nil), d.submissions...)
}

func (d *Driver) newHandle() kmt.Handle {
	if d.lastHandle == 0 {
		d.lastHandle = firstHandle
	} else {
		d.lastHandle += handleStride
	}
	return d.lastHandle
}

func (d *Driver) commandBufferSize() uint32 {
	if d.CommandBufferSize != 0 {
		return d.CommandBufferSize
	}
	return DefaultCommandBufferSize
}

// buffers maps a new set of driver buffers.
func (d *Driver) buffers() (cmd, alloc, patch kmt.Pointer) {
	cmd = d.Memory.Alloc(int(d.commandBufferSize()))
	alloc = d.Memory.Alloc(AllocationListEntries * kmt.AllocationListSize)
	patch = d.Memory.Alloc(PatchLocationEntries * kmt.PatchLocationListSize)
	return cmd, alloc, patch
}

func (d *Driver) CreateAllocation(ctx context.Context, arg *kmt.CreateAllocation) kmt.Status {
	if status, fail := d.enter(ctx, kmt.CreateAllocationSymbol); fail {
		return status
	}
	if arg.Device == 0 {
		return kmt.StatusInvalidHandle
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if arg.Flags&1 != 0 { // CreateResource
		arg.Resource = d.newHandle()
	}
	if arg.NumAllocations == 0 {
		return kmt.StatusSuccess
	}
	info, ok := d.Memory.Read(arg.AllocationInfo, arg.NumAllocations*kmt.AllocationInfo2Size)
	if !ok {
		return kmt.StatusInvalidParameter
	}
	for i := uint32(0); i < arg.NumAllocations; i++ {
		binary.LittleEndian.PutUint32(info[i*kmt.AllocationInfo2Size:], uint32(d.newHandle()))
	}
	return kmt.StatusSuccess
}

func (d *Driver) CreateContext(ctx context.Context, arg *kmt.CreateContext) kmt.Status {
	if status, fail := d.enter(ctx, kmt.CreateContextSymbol); fail {
		return status
	}
	if arg.Device == 0 {
		return kmt.StatusInvalidHandle
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cmd, alloc, patch := d.buffers()
	h := d.newHandle()
	if d.contexts == nil {
		d.contexts = make(map[kmt.Handle]*ContextState)
	}
	d.contexts[h] = &ContextState{
		Device:            arg.Device,
		NodeOrdinal:       arg.NodeOrdinal,
		CommandBuffer:     cmd,
		AllocationList:    alloc,
		PatchLocationList: patch,
	}
	arg.Context = h
	arg.CommandBuffer = cmd
	arg.CommandBufferSize = d.commandBufferSize()
	arg.AllocationList = alloc
	arg.AllocationListSize = AllocationListEntries
	arg.PatchLocationList = patch
	arg.PatchLocationListSize = PatchLocationEntries
	arg.CommandBufferAddress = gpuBase + uint64(h)<<12
	return kmt.StatusSuccess
}

func (d *Driver) CreateDevice(ctx context.Context, arg *kmt.CreateDevice) kmt.Status {
	if status, fail := d.enter(ctx, kmt.CreateDeviceSymbol); fail {
		return status
	}
	if arg.Adapter == 0 {
		return kmt.StatusInvalidHandle
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cmd, alloc, patch := d.buffers()
	arg.Device = d.newHandle()
	arg.CommandBuffer = cmd
	arg.CommandBufferSize = d.commandBufferSize()
	arg.AllocationList = alloc
	arg.AllocationListSize = AllocationListEntries
	arg.PatchLocationList = patch
	arg.PatchLocationListSize = PatchLocationEntries
	return kmt.StatusSuccess
}

func (d *Driver) CreateSynchronizationObject(ctx context.Context, arg *kmt.CreateSynchronizationObject) kmt.Status {
	if status, fail := d.enter(ctx, kmt.CreateSynchronizationObjectSymbol); fail {
		return status
	}
	if arg.Device == 0 {
		return kmt.StatusInvalidHandle
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	arg.SyncObject = d.newHandle()
	if arg.Info.Flags&1 != 0 { // Shared
		arg.Info.SharedHandle = d.newHandle()
	}
	return kmt.StatusSuccess
}

func (d *Driver) Escape(ctx context.Context, arg *kmt.Escape) kmt.Status {
	if status, fail := d.enter(ctx, kmt.EscapeSymbol); fail {
		return status
	}
	if arg.Adapter == 0 {
		return kmt.StatusInvalidHandle
	}
	return kmt.StatusSuccess
}

func (d *Driver) Lock(ctx context.Context, arg *kmt.Lock) kmt.Status {
	if status, fail := d.enter(ctx, kmt.LockSymbol); fail {
		return status
	}
	if arg.Device == 0 || arg.Allocation == 0 {
		return kmt.StatusInvalidHandle
	}
	arg.Data = d.Memory.Alloc(0x1000)
	arg.GPUVirtualAddress = gpuBase + uint64(arg.Allocation)<<12
	return kmt.StatusSuccess
}

func (d *Driver) QueryAdapterInfo(ctx context.Context, arg *kmt.QueryAdapterInfo) kmt.Status {
	if status, fail := d.enter(ctx, kmt.QueryAdapterInfoSymbol); fail {
		return status
	}
	if arg.Adapter == 0 {
		return kmt.StatusInvalidHandle
	}
	if arg.PrivateDriverDataSize == 0 {
		return kmt.StatusSuccess
	}
	data, ok := d.Memory.Read(arg.PrivateDriverData, arg.PrivateDriverDataSize)
	if !ok {
		return kmt.StatusInvalidParameter
	}
	for i := range data {
		data[i] = byte(arg.Type)
	}
	return kmt.StatusSuccess
}

func (d *Driver) Render(ctx context.Context, arg *kmt.Render) kmt.Status {
	if status, fail := d.enter(ctx, kmt.RenderSymbol); fail {
		return status
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	c, ok := d.contexts[arg.Context]
	if !ok {
		return kmt.StatusInvalidHandle
	}
	if uint64(arg.CommandOffset)+uint64(arg.CommandLength) > uint64(d.commandBufferSize()) {
		return kmt.StatusInvalidParameter
	}
	window, ok := d.Memory.Read(c.CommandBuffer.Add(arg.CommandOffset), arg.CommandLength)
	if !ok {
		return kmt.StatusInvalidParameter
	}
	d.submissions = append(d.submissions, Submission{
		Context: arg.Context,
		Words:   kmt.Words(window),
	})

	c.CommandBuffer, c.AllocationList, c.PatchLocationList = d.buffers()
	c.Submissions++
	arg.NewCommandBuffer = c.CommandBuffer
	arg.NewCommandBufferSize = d.commandBufferSize()
	arg.NewAllocationList = c.AllocationList
	arg.NewAllocationListSize = AllocationListEntries
	arg.NewPatchLocationList = c.PatchLocationList
	arg.NewPatchLocationListSize = PatchLocationEntries
	arg.QueuedBufferCount = c.Submissions
	arg.NewCommandBufferAddress = gpuBase + uint64(arg.Context)<<12 + uint64(c.Submissions)*uint64(d.commandBufferSize())
	return kmt.StatusSuccess
}

func (d *Driver) SetContextSchedulingPriority(ctx context.Context, arg *kmt.SetContextSchedulingPriority) kmt.Status {
	if status, fail := d.enter(ctx, kmt.SetContextSchedulingPrioritySymbol); fail {
		return status
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, ok := d.contexts[arg.Context]; !ok {
		return kmt.StatusInvalidHandle
	}
	if arg.Priority < -7 || arg.Priority > 7 {
		return kmt.StatusInvalidParameter
	}
	return kmt.StatusSuccess
}
