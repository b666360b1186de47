package kmt

// The argument structures below reproduce the memory layout of their
// d3dkmthk.h counterparts on 64 bit Windows: field order, sizes and the
// natural alignment of Go match the C compiler's, which lets the native
// backend pass the caller's structure to the tracer without copying it.
//
// Unions are represented by their first member. Bit fields are represented by
// the 32 bit word holding them; the Flag tables name the individual bits.

// CreateAllocation is D3DKMT_CREATEALLOCATION.
type CreateAllocation struct {
	Device                       Handle
	Resource                     Handle
	GlobalShare                  Handle
	_                            uint32
	PrivateRuntimeData           Pointer
	PrivateRuntimeDataSize       uint32
	_                            uint32
	PrivateDriverData            Pointer
	PrivateDriverDataSize        uint32
	NumAllocations               uint32
	AllocationInfo               Pointer // D3DDDI_ALLOCATIONINFO2[NumAllocations]
	Flags                        uint32
	_                            uint32
	PrivateRuntimeResourceHandle Pointer
}

// CreateContext is D3DKMT_CREATECONTEXT.
type CreateContext struct {
	Device                Handle
	NodeOrdinal           uint32
	EngineAffinity        uint32
	Flags                 uint32
	PrivateDriverData     Pointer
	PrivateDriverDataSize uint32
	ClientHint            uint32
	Context               Handle
	_                     uint32
	CommandBuffer         Pointer
	CommandBufferSize     uint32
	_                     uint32
	AllocationList        Pointer
	AllocationListSize    uint32
	_                     uint32
	PatchLocationList     Pointer
	PatchLocationListSize uint32
	_                     uint32
	CommandBufferAddress  uint64 // GPU virtual address
}

// CreateDevice is D3DKMT_CREATEDEVICE.
type CreateDevice struct {
	Adapter               Handle
	_                     uint32 // upper half of the hAdapter/pAdapter union
	Flags                 uint32
	Device                Handle
	CommandBuffer         Pointer
	CommandBufferSize     uint32
	_                     uint32
	AllocationList        Pointer
	AllocationListSize    uint32
	_                     uint32
	PatchLocationList     Pointer
	PatchLocationListSize uint32
	_                     uint32
}

// SynchronizationObjectInfo2 is D3DDDI_SYNCHRONIZATIONOBJECTINFO2.
type SynchronizationObjectInfo2 struct {
	Type         uint32
	Flags        uint32
	Data         [8]uint64 // type specific union
	SharedHandle Handle
	_            uint32
}

// CreateSynchronizationObject is D3DKMT_CREATESYNCHRONIZATIONOBJECT2.
type CreateSynchronizationObject struct {
	Device     Handle
	_          uint32
	Info       SynchronizationObjectInfo2
	SyncObject Handle
	_          uint32
}

// Escape is D3DKMT_ESCAPE.
type Escape struct {
	Adapter               Handle
	Device                Handle
	Type                  uint32
	Flags                 uint32
	PrivateDriverData     Pointer
	PrivateDriverDataSize uint32
	Context               Handle
}

// Lock is D3DKMT_LOCK.
type Lock struct {
	Device            Handle
	Allocation        Handle
	PrivateDriverData uint32
	NumPages          uint32
	Pages             Pointer // UINT[NumPages]
	Data              Pointer
	Flags             uint32
	_                 uint32
	GPUVirtualAddress uint64
}

// QueryAdapterInfo is D3DKMT_QUERYADAPTERINFO.
type QueryAdapterInfo struct {
	Adapter               Handle
	Type                  uint32
	PrivateDriverData     Pointer
	PrivateDriverDataSize uint32
	_                     uint32
}

// Render is D3DKMT_RENDER.
type Render struct {
	Context                  Handle // union with hDevice
	CommandOffset            uint32
	CommandLength            uint32
	AllocationCount          uint32
	PatchLocationCount       uint32
	_                        uint32
	NewCommandBuffer         Pointer
	NewCommandBufferSize     uint32
	_                        uint32
	NewAllocationList        Pointer
	NewAllocationListSize    uint32
	_                        uint32
	NewPatchLocationList     Pointer
	NewPatchLocationListSize uint32
	Flags                    uint32
	PresentHistoryToken      uint64
	BroadcastContextCount    uint32
	BroadcastContext         [MaxBroadcastContext]Handle
	QueuedBufferCount        uint32
	NewCommandBufferAddress  uint64 // GPU virtual address
	PrivateDriverData        Pointer
	PrivateDriverDataSize    uint32
	_                        uint32
}

// SetContextSchedulingPriority is D3DKMT_SETCONTEXTSCHEDULINGPRIORITY.
type SetContextSchedulingPriority struct {
	Context  Handle
	Priority int32
}

// Flag names a bit of a flags word.
type Flag struct {
	Name string
	Bit  uint
}

// CreateDeviceFlags are the bits of D3DKMT_CREATEDEVICEFLAGS.
var CreateDeviceFlags = []Flag{
	{"LegacyMode", 0},
	{"RequestVSync", 1},
	{"DisableGpuTimeout", 2},
}

// CreateAllocationFlags are the bits of D3DKMT_CREATEALLOCATIONFLAGS. Bits
// marked (KM) are only honored for kernel-mode callers.
var CreateAllocationFlags = []Flag{
	{"CreateResource", 0},
	{"CreateShared", 1},
	{"NonSecure", 2},
	{"CreateProtected (KM)", 3},
	{"RestrictSharedAccess", 4},
	{"ExistingSysMem (KM)", 5},
	{"NtSecuritySharing", 6},
	{"ReadOnly", 7},
	{"CreateWriteCombined (KM)", 8},
	{"CreateCached (KM)", 9},
	{"SwapChainBackBuffer", 10},
	{"CrossAdapter", 11},
	{"OpenCrossAdapter (KM)", 12},
	{"PartialSharedCreation", 13},
	{"WriteWatch", 15},
}

// AllocationInfoFlags are the bits of D3DDDI_ALLOCATIONINFOFLAGS that are
// traced.
var AllocationInfoFlags = []Flag{
	{"Primary", 0},
	{"Stereo", 1},
}

// LockFlags are the bits of D3DDDICB_LOCKFLAGS.
var LockFlags = []Flag{
	{"ReadOnly", 0},
	{"WriteOnly", 1},
	{"DonotWait", 2},
	{"IgnoreSync", 3},
	{"LockEntire", 4},
	{"DonotEvict", 5},
	{"AcquireAperture", 6},
	{"Discard", 7},
	{"NoExistingReference", 8},
	{"UseAlternateVA", 9},
	{"IgnoreReadSync", 10},
}

// RenderFlags are the bits of D3DKMT_RENDERFLAGS.
var RenderFlags = []Flag{
	{"ResizeCommandBuffer", 0},
	{"ResizeAllocationList", 1},
	{"ResizePatchLocationList", 2},
	{"NullRendering", 3},
	{"PresentRedirected", 4},
	{"RenderKm", 5},
	{"RenderKmReadback", 6},
}

const (
	RenderResizeCommandBuffer     = 1 << 0
	RenderResizeAllocationList    = 1 << 1
	RenderResizePatchLocationList = 1 << 2
)
