package kmt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Tracer wraps a System to log calls.
//
// Every call produces one block of text on Writer: a header naming the entry
// point and the calling thread, the input fields prefixed with '>', the
// status, the output fields prefixed with '<', and an empty line. The inputs
// are written before calling through to the wrapped System, so a call which
// blocks is visible in the trace while it blocks.
//
// The tracer never modifies the argument structures and returns the status of
// the wrapped System unchanged.
type Tracer struct {
	Writer io.Writer
	System

	// Memory is used to read the buffers referenced by the arguments. When
	// nil, buffers are reported as unreadable.
	Memory Memory
	// Contexts tracks the buffers of the submission contexts created while
	// tracing. When nil, render calls are traced without their command
	// buffers.
	Contexts *Registry
	// Decoder decodes the command buffers submitted to the graphics node.
	Decoder Decoder
	// Alternate is passed to the decoder to select the hardware generation.
	Alternate bool
	// ThreadID returns the identifier of the calling thread.
	ThreadID func() uint32
	// MaxDump limits the number of bytes dumped and decoded per buffer.
	// Zero means DefaultMaxDump.
	MaxDump uint32
}

func (t *Tracer) CreateAllocation(ctx context.Context, arg *CreateAllocation) Status {
	return trace(t, ctx, CreateAllocationSymbol, arg, createAllocationInputs, createAllocationOutputs, t.System.CreateAllocation)
}

func (t *Tracer) CreateContext(ctx context.Context, arg *CreateContext) Status {
	status := trace(t, ctx, CreateContextSymbol, arg, createContextInputs, createContextOutputs, t.System.CreateContext)
	if status.Success() && t.Contexts != nil {
		t.Contexts.Insert(arg.Context, Context{
			NodeOrdinal:       arg.NodeOrdinal,
			CommandBuffer:     arg.CommandBuffer,
			AllocationList:    arg.AllocationList,
			PatchLocationList: arg.PatchLocationList,
		})
	}
	return status
}

func (t *Tracer) CreateDevice(ctx context.Context, arg *CreateDevice) Status {
	return trace(t, ctx, CreateDeviceSymbol, arg, createDeviceInputs, createDeviceOutputs, t.System.CreateDevice)
}

func (t *Tracer) CreateSynchronizationObject(ctx context.Context, arg *CreateSynchronizationObject) Status {
	return trace(t, ctx, CreateSynchronizationObjectSymbol, arg, createSynchronizationObjectInputs, createSynchronizationObjectOutputs, t.System.CreateSynchronizationObject)
}

func (t *Tracer) Escape(ctx context.Context, arg *Escape) Status {
	return trace(t, ctx, EscapeSymbol, arg, escapeInputs, escapeOutputs, t.System.Escape)
}

func (t *Tracer) Lock(ctx context.Context, arg *Lock) Status {
	return trace(t, ctx, LockSymbol, arg, lockInputs, lockOutputs, t.System.Lock)
}

func (t *Tracer) QueryAdapterInfo(ctx context.Context, arg *QueryAdapterInfo) Status {
	return trace(t, ctx, QueryAdapterInfoSymbol, arg, queryAdapterInfoInputs, queryAdapterInfoOutputs, t.System.QueryAdapterInfo)
}

func (t *Tracer) Render(ctx context.Context, arg *Render) Status {
	status := trace(t, ctx, RenderSymbol, arg, renderInputs, renderOutputs, t.System.Render)
	if status.Success() && t.Contexts != nil {
		t.Contexts.UpdateBuffers(arg.Context, arg.NewCommandBuffer, arg.NewAllocationList, arg.NewPatchLocationList)
	}
	return status
}

func (t *Tracer) SetContextSchedulingPriority(ctx context.Context, arg *SetContextSchedulingPriority) Status {
	return trace(t, ctx, SetContextSchedulingPrioritySymbol, arg, setContextSchedulingPriorityInputs, nil, t.System.SetContextSchedulingPriority)
}

func trace[T any](t *Tracer, ctx context.Context, name string, arg *T, inputs, outputs []Field[T], call func(context.Context, *T) Status) Status {
	r := t.record(ctx)
	defer r.release()

	r.printf("%s @ %d:\n", name, t.threadID())
	printFields(r, '>', inputs, arg)
	r.flush()

	status := call(ctx, arg)

	r.printf("    Status = %s\n", status)
	printFields(r, '<', outputs, arg)
	r.printf("\n")
	r.flush()
	return status
}

func (t *Tracer) threadID() uint32 {
	if t.ThreadID != nil {
		return t.ThreadID()
	}
	return 0
}

func (t *Tracer) maxDump() uint32 {
	if t.MaxDump != 0 {
		return t.MaxDump
	}
	return DefaultMaxDump
}

var records = sync.Pool{
	New: func() any { return new(record) },
}

func (t *Tracer) record(ctx context.Context) *record {
	r := records.Get().(*record)
	r.tracer = t
	r.ctx = ctx
	return r
}

// record accumulates the text of one call. It is written to the trace in two
// pieces, before and after calling through, so lines of concurrent calls do
// not interleave within a piece.
type record struct {
	bytes.Buffer
	tracer *Tracer
	ctx    context.Context

	// The registry is consulted at most once per call.
	looked   bool
	known    bool
	snapshot Context
}

func (r *record) release() {
	r.Reset()
	r.tracer, r.ctx = nil, nil
	r.looked, r.known, r.snapshot = false, false, Context{}
	records.Put(r)
}

func (r *record) printf(msg string, args ...any) {
	fmt.Fprintf(r, msg, args...)
}

func (r *record) flush() {
	if w := r.tracer.Writer; w != nil && r.Len() > 0 {
		w.Write(r.Bytes())
	}
	r.Reset()
}

func (r *record) buffer(prefix, name string, addr Pointer, size uint32) {
	writeBuffer(r, r.tracer.Memory, r.tracer.maxDump(), prefix, name, addr, size)
}

// read reads a table of count entries of size bytes, limited to MaxDump bytes
// but never to less than one entry.
func (r *record) read(addr Pointer, count, size uint32) ([]byte, uint32, bool) {
	max := r.tracer.maxDump() / size
	if max == 0 {
		max = 1
	}
	if count > max {
		count = max
	}
	b, ok := readArray(r.tracer.Memory, addr, count, size)
	return b, count, ok
}

// lookup returns the registry record of the context h, taken once per call.
func (r *record) lookup(h Handle) (Context, bool) {
	if !r.looked {
		r.looked = true
		if reg := r.tracer.Contexts; reg != nil {
			r.snapshot, r.known = reg.Snapshot(h)
		}
	}
	return r.snapshot, r.known
}

func (r *record) contextHandle(dir byte, name string, h Handle) {
	if c, ok := r.lookup(h); ok && h != 0 {
		r.printf("  %c %s = 0x%X (node %d)\n", dir, name, uint32(h), c.NodeOrdinal)
	} else {
		r.printf("  %c %s = 0x%X\n", dir, name, uint32(h))
	}
}

// commandBuffer dumps the submitted window of the command buffer and decodes
// it when the context runs on the graphics node. Nothing is printed for
// contexts the registry does not know about.
func (r *record) commandBuffer(arg *Render) {
	c, ok := r.lookup(arg.Context)
	if !ok {
		return
	}
	var addr Pointer
	if !c.CommandBuffer.IsNull() {
		addr = c.CommandBuffer.Add(arg.CommandOffset)
	}
	r.buffer("  > ", "pCommandBuffer", addr, arg.CommandLength)

	t := r.tracer
	if c.NodeOrdinal != GraphicsNode || t.Decoder == nil || addr.IsNull() || t.Memory == nil {
		return
	}
	n := arg.CommandLength
	if max := t.maxDump(); n > max {
		n = max
	}
	b, ok := t.Memory.Read(addr, n)
	if !ok {
		return
	}
	if err := t.Decoder.Decode(r.ctx, r, Words(b), t.Alternate); err != nil {
		r.printf("    ! decode: %v\n", err)
	}
}

func (r *record) allocationList(arg *Render) {
	c, ok := r.lookup(arg.Context)
	if !ok || arg.AllocationCount == 0 {
		return
	}
	b, n, ok := r.read(c.AllocationList, arg.AllocationCount, AllocationListSize)
	if !ok {
		r.printf("    <unreadable allocation list at %s>\n", c.AllocationList)
		return
	}
	for i := uint32(0); i < n; i++ {
		e := LoadAllocationListEntry(b[i*AllocationListSize:])
		r.printf("    [%d] = 0x%X, flags 0x%X\n", i, uint32(e.Allocation), e.Value)
	}
	r.truncated(n, arg.AllocationCount)
}

func (r *record) patchLocationList(arg *Render) {
	c, ok := r.lookup(arg.Context)
	if !ok || arg.PatchLocationCount == 0 {
		return
	}
	b, n, ok := r.read(c.PatchLocationList, arg.PatchLocationCount, PatchLocationListSize)
	if !ok {
		r.printf("    <unreadable patch location list at %s>\n", c.PatchLocationList)
		return
	}
	for i := uint32(0); i < n; i++ {
		p := LoadPatchLocation(b[i*PatchLocationListSize:])
		r.printf("    [%d] = allocation %d, slot 0x%X << 10 | 0x%X (0x%X), driver ID 0x%X, allocation offset 0x%X, patch offset 0x%X, split offset 0x%X\n",
			i, p.AllocationIndex, p.SlotID>>10, p.SlotID&(1<<10-1), p.SlotID,
			p.DriverID, p.AllocationOffset, p.PatchOffset, p.SplitOffset)
	}
	r.truncated(n, arg.PatchLocationCount)
}

func (r *record) broadcastContexts(arg *Render) {
	n := arg.BroadcastContextCount
	if n > MaxBroadcastContext {
		n = MaxBroadcastContext
	}
	for i := uint32(0); i < n; i++ {
		r.printf("  > BroadcastContext[%d] = 0x%X\n", i, uint32(arg.BroadcastContext[i]))
	}
	r.truncated(n, arg.BroadcastContextCount)
}

func (r *record) pages(addr Pointer, count uint32) {
	if count == 0 || addr.IsNull() {
		return
	}
	b, n, ok := r.read(addr, count, 4)
	if !ok {
		r.printf("    <unreadable pages at %s>\n", addr)
		return
	}
	for i, page := range Words(b[:n*4]) {
		r.printf("    [0x%X] = 0x%X\n", i, page)
	}
	r.truncated(n, count)
}

func (r *record) allocationInfo(dir byte, arg *CreateAllocation) {
	r.printf("  %c pAllocationInfo2:\n", dir)
	if arg.NumAllocations == 0 || arg.AllocationInfo.IsNull() {
		return
	}
	b, n, ok := r.read(arg.AllocationInfo, arg.NumAllocations, AllocationInfo2Size)
	if !ok {
		r.printf("    <unreadable allocation info at %s>\n", arg.AllocationInfo)
		return
	}
	for i := uint32(0); i < n; i++ {
		info := LoadAllocationInfo2(b[i*AllocationInfo2Size:])
		r.printf("    [%d]:\n", i)
		if dir == '<' {
			r.printf("      hAllocation = 0x%X\n", uint32(info.Allocation))
			r.buffer("      ", "pPrivateDriverData", info.PrivateDriverData, info.PrivateDriverDataSize)
			continue
		}
		r.printf("      hSection = %s\n", info.Section)
		r.buffer("      ", "pPrivateDriverData", info.PrivateDriverData, info.PrivateDriverDataSize)
		r.printf("      PrivateDriverDataSize = 0x%X\n", info.PrivateDriverDataSize)
		r.printf("      VidPnSourceId = 0x%X\n", info.VidPnSourceID)
		for _, flag := range AllocationInfoFlags {
			r.printf("      Flags.%s = %d\n", flag.Name, (info.Flags>>flag.Bit)&1)
		}
	}
	r.truncated(n, arg.NumAllocations)
}

func (r *record) truncated(n, count uint32) {
	if n < count {
		r.printf("    ... (%d more)\n", count-n)
	}
}
