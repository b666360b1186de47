package kmt

import (
	"reflect"
	"testing"
	"unsafe"
)

func TestArgumentLayout(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("argument structures only match the 64 bit layout")
	}

	assertEqual(t, int(unsafe.Sizeof(CreateAllocation{})), 72)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.PrivateRuntimeData)), 16)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.PrivateDriverData)), 32)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.NumAllocations)), 44)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.AllocationInfo)), 48)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.Flags)), 56)
	assertEqual(t, int(unsafe.Offsetof(CreateAllocation{}.PrivateRuntimeResourceHandle)), 64)

	assertEqual(t, int(unsafe.Sizeof(CreateContext{})), 96)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.PrivateDriverData)), 16)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.Context)), 32)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.CommandBuffer)), 40)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.AllocationList)), 56)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.PatchLocationList)), 72)
	assertEqual(t, int(unsafe.Offsetof(CreateContext{}.CommandBufferAddress)), 88)

	assertEqual(t, int(unsafe.Sizeof(CreateDevice{})), 64)
	assertEqual(t, int(unsafe.Offsetof(CreateDevice{}.Flags)), 8)
	assertEqual(t, int(unsafe.Offsetof(CreateDevice{}.Device)), 12)
	assertEqual(t, int(unsafe.Offsetof(CreateDevice{}.CommandBuffer)), 16)
	assertEqual(t, int(unsafe.Offsetof(CreateDevice{}.PatchLocationList)), 48)

	assertEqual(t, int(unsafe.Sizeof(SynchronizationObjectInfo2{})), 80)
	assertEqual(t, int(unsafe.Offsetof(SynchronizationObjectInfo2{}.SharedHandle)), 72)
	assertEqual(t, int(unsafe.Sizeof(CreateSynchronizationObject{})), 96)
	assertEqual(t, int(unsafe.Offsetof(CreateSynchronizationObject{}.Info)), 8)
	assertEqual(t, int(unsafe.Offsetof(CreateSynchronizationObject{}.SyncObject)), 88)

	assertEqual(t, int(unsafe.Sizeof(Escape{})), 32)
	assertEqual(t, int(unsafe.Offsetof(Escape{}.PrivateDriverData)), 16)
	assertEqual(t, int(unsafe.Offsetof(Escape{}.Context)), 28)

	assertEqual(t, int(unsafe.Sizeof(Lock{})), 48)
	assertEqual(t, int(unsafe.Offsetof(Lock{}.Pages)), 16)
	assertEqual(t, int(unsafe.Offsetof(Lock{}.Data)), 24)
	assertEqual(t, int(unsafe.Offsetof(Lock{}.Flags)), 32)
	assertEqual(t, int(unsafe.Offsetof(Lock{}.GPUVirtualAddress)), 40)

	assertEqual(t, int(unsafe.Sizeof(QueryAdapterInfo{})), 24)
	assertEqual(t, int(unsafe.Offsetof(QueryAdapterInfo{}.PrivateDriverData)), 8)

	assertEqual(t, int(unsafe.Sizeof(Render{})), 368)
	assertEqual(t, int(unsafe.Offsetof(Render{}.NewCommandBuffer)), 24)
	assertEqual(t, int(unsafe.Offsetof(Render{}.NewAllocationList)), 40)
	assertEqual(t, int(unsafe.Offsetof(Render{}.NewPatchLocationList)), 56)
	assertEqual(t, int(unsafe.Offsetof(Render{}.Flags)), 68)
	assertEqual(t, int(unsafe.Offsetof(Render{}.PresentHistoryToken)), 72)
	assertEqual(t, int(unsafe.Offsetof(Render{}.BroadcastContextCount)), 80)
	assertEqual(t, int(unsafe.Offsetof(Render{}.BroadcastContext)), 84)
	assertEqual(t, int(unsafe.Offsetof(Render{}.QueuedBufferCount)), 340)
	assertEqual(t, int(unsafe.Offsetof(Render{}.NewCommandBufferAddress)), 344)
	assertEqual(t, int(unsafe.Offsetof(Render{}.PrivateDriverData)), 352)

	assertEqual(t, int(unsafe.Sizeof(SetContextSchedulingPriority{})), 8)
}

func TestFlagTables(t *testing.T) {
	for name, table := range map[string][]Flag{
		"CreateDevice":     CreateDeviceFlags,
		"CreateAllocation": CreateAllocationFlags,
		"AllocationInfo":   AllocationInfoFlags,
		"Lock":             LockFlags,
		"Render":           RenderFlags,
	} {
		seen := make(map[uint]string)
		for _, flag := range table {
			if flag.Bit >= 32 {
				t.Errorf("%s: flag %s is out of range: %d", name, flag.Name, flag.Bit)
			}
			if prev, ok := seen[flag.Bit]; ok {
				t.Errorf("%s: flags %s and %s share bit %d", name, prev, flag.Name, flag.Bit)
			}
			seen[flag.Bit] = flag.Name
		}
	}
	assertEqual(t, uint32(1)<<RenderFlags[0].Bit, uint32(RenderResizeCommandBuffer))
	assertEqual(t, uint32(1)<<RenderFlags[1].Bit, uint32(RenderResizeAllocationList))
	assertEqual(t, uint32(1)<<RenderFlags[2].Bit, uint32(RenderResizePatchLocationList))
}

func TestLoadTables(t *testing.T) {
	b := make([]byte, PatchLocationListSize)
	copy(b, []byte{
		3, 0, 0, 0,
		0x05, 0x04, 0x00, 0xFF, // slot 0x000405, upper byte reserved
		0x11, 0, 0, 0,
		0x20, 0, 0, 0,
		0x30, 0, 0, 0,
		0x40, 0, 0, 0,
	})
	assertEqual(t, LoadPatchLocation(b), PatchLocation{
		AllocationIndex:  3,
		SlotID:           0x405,
		DriverID:         0x11,
		AllocationOffset: 0x20,
		PatchOffset:      0x30,
		SplitOffset:      0x40,
	})

	assertEqual(t, LoadAllocationListEntry([]byte{0x40, 0, 0, 0x40, 1, 0, 0, 0}), AllocationListEntry{
		Allocation: 0x40000040,
		Value:      1,
	})

	assertEqual(t, Words([]byte{1, 0, 0, 0, 2, 0, 0, 0x80, 0xFF}), []uint32{1, 0x80000002})
}

func assertEqual[T any](t *testing.T, actual, expected T) {
	t.Helper()

	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("%v != %v", actual, expected)
	}
}
