package kmt

// Field tables of the traced calls. The order of the entries is the order of
// the lines in the trace.

var escapeInputs = []Field[Escape]{
	hex("hAdapter", func(a *Escape) uint64 { return uint64(a.Adapter) }),
	hex("hDevice", func(a *Escape) uint64 { return uint64(a.Device) }),
	decimal("Type", func(a *Escape) uint64 { return uint64(a.Type) }),
	hex32("Flags", func(a *Escape) uint64 { return uint64(a.Flags) }),
	buffer("pPrivateDriverData", func(a *Escape) (Pointer, uint32) { return a.PrivateDriverData, a.PrivateDriverDataSize }),
	hex("PrivateDriverDataSize", func(a *Escape) uint64 { return uint64(a.PrivateDriverDataSize) }),
	custom(func(r *record, a *Escape) { r.contextHandle('>', "hContext", a.Context) }),
}

var escapeOutputs = []Field[Escape]{
	buffer("pPrivateDriverData", func(a *Escape) (Pointer, uint32) { return a.PrivateDriverData, a.PrivateDriverDataSize }),
}

var queryAdapterInfoInputs = []Field[QueryAdapterInfo]{
	hex("hAdapter", func(a *QueryAdapterInfo) uint64 { return uint64(a.Adapter) }),
	decimal("Type", func(a *QueryAdapterInfo) uint64 { return uint64(a.Type) }),
	buffer("pPrivateDriverData", func(a *QueryAdapterInfo) (Pointer, uint32) {
		return a.PrivateDriverData, a.PrivateDriverDataSize
	}),
	hex("PrivateDriverDataSize", func(a *QueryAdapterInfo) uint64 { return uint64(a.PrivateDriverDataSize) }),
}

var queryAdapterInfoOutputs = []Field[QueryAdapterInfo]{
	buffer("pPrivateDriverData", func(a *QueryAdapterInfo) (Pointer, uint32) {
		return a.PrivateDriverData, a.PrivateDriverDataSize
	}),
	hex("PrivateDriverDataSize", func(a *QueryAdapterInfo) uint64 { return uint64(a.PrivateDriverDataSize) }),
}

var createDeviceInputs = join(
	[]Field[CreateDevice]{
		hex("hAdapter", func(a *CreateDevice) uint64 { return uint64(a.Adapter) }),
	},
	flags("Flags", CreateDeviceFlags, func(a *CreateDevice) uint64 { return uint64(a.Flags) }),
)

var createDeviceOutputs = []Field[CreateDevice]{
	hex("hDevice", func(a *CreateDevice) uint64 { return uint64(a.Device) }),
	address("pCommandBuffer", func(a *CreateDevice) Pointer { return a.CommandBuffer }),
	hex("CommandBufferSize", func(a *CreateDevice) uint64 { return uint64(a.CommandBufferSize) }),
	address("pAllocationList", func(a *CreateDevice) Pointer { return a.AllocationList }),
	hex("AllocationListSize", func(a *CreateDevice) uint64 { return uint64(a.AllocationListSize) }),
	address("pPatchLocationList", func(a *CreateDevice) Pointer { return a.PatchLocationList }),
	hex("PatchLocationListSize", func(a *CreateDevice) uint64 { return uint64(a.PatchLocationListSize) }),
}

var createSynchronizationObjectInputs = []Field[CreateSynchronizationObject]{
	hex("hDevice", func(a *CreateSynchronizationObject) uint64 { return uint64(a.Device) }),
	decimal("Info.Type", func(a *CreateSynchronizationObject) uint64 { return uint64(a.Info.Type) }),
	hex("Info.Flags", func(a *CreateSynchronizationObject) uint64 { return uint64(a.Info.Flags) }),
}

var createSynchronizationObjectOutputs = []Field[CreateSynchronizationObject]{
	decimal("Info.Type", func(a *CreateSynchronizationObject) uint64 { return uint64(a.Info.Type) }),
	hex("Info.SharedHandle", func(a *CreateSynchronizationObject) uint64 { return uint64(a.Info.SharedHandle) }),
	hex("hSyncObject", func(a *CreateSynchronizationObject) uint64 { return uint64(a.SyncObject) }),
}

var createAllocationInputs = join(
	[]Field[CreateAllocation]{
		hex("hDevice", func(a *CreateAllocation) uint64 { return uint64(a.Device) }),
		hex("hResource", func(a *CreateAllocation) uint64 { return uint64(a.Resource) }),
		buffer("pPrivateRuntimeData", func(a *CreateAllocation) (Pointer, uint32) {
			return a.PrivateRuntimeData, a.PrivateRuntimeDataSize
		}),
		hex("PrivateRuntimeDataSize", func(a *CreateAllocation) uint64 { return uint64(a.PrivateRuntimeDataSize) }),
		buffer("pPrivateDriverData", func(a *CreateAllocation) (Pointer, uint32) {
			return a.PrivateDriverData, a.PrivateDriverDataSize
		}),
		hex("PrivateDriverDataSize", func(a *CreateAllocation) uint64 { return uint64(a.PrivateDriverDataSize) }),
		decimal("NumAllocations", func(a *CreateAllocation) uint64 { return uint64(a.NumAllocations) }),
		custom(func(r *record, a *CreateAllocation) { r.allocationInfo('>', a) }),
	},
	flags("Flags", CreateAllocationFlags, func(a *CreateAllocation) uint64 { return uint64(a.Flags) }),
	[]Field[CreateAllocation]{
		address("hPrivateRuntimeResourceHandle", func(a *CreateAllocation) Pointer { return a.PrivateRuntimeResourceHandle }),
	},
)

var createAllocationOutputs = []Field[CreateAllocation]{
	hex("hResource", func(a *CreateAllocation) uint64 { return uint64(a.Resource) }),
	hex("hGlobalShare", func(a *CreateAllocation) uint64 { return uint64(a.GlobalShare) }),
	custom(func(r *record, a *CreateAllocation) { r.allocationInfo('<', a) }),
	address("hPrivateRuntimeResourceHandle", func(a *CreateAllocation) Pointer { return a.PrivateRuntimeResourceHandle }),
}

var lockInputs = join(
	[]Field[Lock]{
		hex("hDevice", func(a *Lock) uint64 { return uint64(a.Device) }),
		hex("hAllocation", func(a *Lock) uint64 { return uint64(a.Allocation) }),
		hex("PrivateDriverData", func(a *Lock) uint64 { return uint64(a.PrivateDriverData) }),
		decimal("NumPages", func(a *Lock) uint64 { return uint64(a.NumPages) }),
		custom(func(r *record, a *Lock) { r.pages(a.Pages, a.NumPages) }),
	},
	flags("Flags", LockFlags, func(a *Lock) uint64 { return uint64(a.Flags) }),
)

var lockOutputs = []Field[Lock]{
	address("pData", func(a *Lock) Pointer { return a.Data }),
	hex("GpuVirtualAddress", func(a *Lock) uint64 { return a.GPUVirtualAddress }),
}

var createContextInputs = []Field[CreateContext]{
	hex("hDevice", func(a *CreateContext) uint64 { return uint64(a.Device) }),
	decimal("NodeOrdinal", func(a *CreateContext) uint64 { return uint64(a.NodeOrdinal) }),
	hex("EngineAffinity", func(a *CreateContext) uint64 { return uint64(a.EngineAffinity) }),
	hex("Flags", func(a *CreateContext) uint64 { return uint64(a.Flags) }),
	buffer("pPrivateDriverData", func(a *CreateContext) (Pointer, uint32) {
		return a.PrivateDriverData, a.PrivateDriverDataSize
	}),
	hex("PrivateDriverDataSize", func(a *CreateContext) uint64 { return uint64(a.PrivateDriverDataSize) }),
	decimal("ClientHint", func(a *CreateContext) uint64 { return uint64(a.ClientHint) }),
}

var createContextOutputs = []Field[CreateContext]{
	hex("hContext", func(a *CreateContext) uint64 { return uint64(a.Context) }),
	address("pCommandBuffer", func(a *CreateContext) Pointer { return a.CommandBuffer }),
	hex("CommandBufferSize", func(a *CreateContext) uint64 { return uint64(a.CommandBufferSize) }),
	address("pAllocationList", func(a *CreateContext) Pointer { return a.AllocationList }),
	hex("AllocationListSize", func(a *CreateContext) uint64 { return uint64(a.AllocationListSize) }),
	address("pPatchLocationList", func(a *CreateContext) Pointer { return a.PatchLocationList }),
	hex("PatchLocationListSize", func(a *CreateContext) uint64 { return uint64(a.PatchLocationListSize) }),
	hex("CommandBuffer", func(a *CreateContext) uint64 { return a.CommandBufferAddress }),
}

var setContextSchedulingPriorityInputs = []Field[SetContextSchedulingPriority]{
	hex("hContext", func(a *SetContextSchedulingPriority) uint64 { return uint64(a.Context) }),
	signed("Priority", func(a *SetContextSchedulingPriority) uint64 { return uint64(uint32(a.Priority)) }),
}

var renderInputs = join(
	[]Field[Render]{
		hex("hContext", func(a *Render) uint64 { return uint64(a.Context) }),
		hex("CommandOffset", func(a *Render) uint64 { return uint64(a.CommandOffset) }),
		hex("CommandLength", func(a *Render) uint64 { return uint64(a.CommandLength) }),
		custom((*record).commandBuffer),
		decimal("AllocationCount", func(a *Render) uint64 { return uint64(a.AllocationCount) }),
		custom((*record).allocationList),
		decimal("PatchLocationCount", func(a *Render) uint64 { return uint64(a.PatchLocationCount) }),
		custom((*record).patchLocationList),
		hex("NewCommandBufferSize", func(a *Render) uint64 { return uint64(a.NewCommandBufferSize) }),
		hex("NewAllocationListSize", func(a *Render) uint64 { return uint64(a.NewAllocationListSize) }),
		hex("NewPatchLocationListSize", func(a *Render) uint64 { return uint64(a.NewPatchLocationListSize) }),
	},
	flags("Flags", RenderFlags, func(a *Render) uint64 { return uint64(a.Flags) }),
	[]Field[Render]{
		hex("PresentHistoryToken", func(a *Render) uint64 { return a.PresentHistoryToken }),
		decimal("BroadcastContextCount", func(a *Render) uint64 { return uint64(a.BroadcastContextCount) }),
		custom((*record).broadcastContexts),
		buffer("pPrivateDriverData", func(a *Render) (Pointer, uint32) { return a.PrivateDriverData, a.PrivateDriverDataSize }),
		hex("PrivateDriverDataSize", func(a *Render) uint64 { return uint64(a.PrivateDriverDataSize) }),
	},
)

var renderOutputs = []Field[Render]{
	address("pNewCommandBuffer", func(a *Render) Pointer { return a.NewCommandBuffer }),
	hex("NewCommandBufferSize", func(a *Render) uint64 { return uint64(a.NewCommandBufferSize) }),
	address("pNewAllocationList", func(a *Render) Pointer { return a.NewAllocationList }),
	hex("NewAllocationListSize", func(a *Render) uint64 { return uint64(a.NewAllocationListSize) }),
	address("pNewPatchLocationList", func(a *Render) Pointer { return a.NewPatchLocationList }),
	hex("NewPatchLocationListSize", func(a *Render) uint64 { return uint64(a.NewPatchLocationListSize) }),
	decimal("QueuedBufferCount", func(a *Render) uint64 { return uint64(a.QueuedBufferCount) }),
	hex("NewCommandBuffer", func(a *Render) uint64 { return a.NewCommandBufferAddress }),
}
