package kmttest

import (
	"context"
	"testing"

	"github.com/stealthrocket/kmt-go"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MakeSystem constructs the kmt.System under test on top of a driver.
type MakeSystem func(*Driver) (kmt.System, error)

// TestSystem is a test suite which validates that a kmt.System layered on
// top of a driver forwards the calls, their arguments and their results
// unchanged.
func TestSystem(t *testing.T, makeSystem MakeSystem) {
	t.Run("device", device.runFunc(makeSystem))
	t.Run("context", contexts.runFunc(makeSystem))
	t.Run("render", render.runFunc(makeSystem))
	t.Run("status", status.runFunc(makeSystem))
}

type newSystem func() (kmt.System, *Driver)

type testFunc func(*testing.T, context.Context, newSystem)

type testSuite map[string]testFunc

func (tests testSuite) names() []string {
	names := maps.Keys(tests)
	slices.Sort(names)
	return names
}

func (tests testSuite) runFunc(makeSystem MakeSystem) func(*testing.T) {
	return func(t *testing.T) { tests.run(t, makeSystem) }
}

func (tests testSuite) run(t *testing.T, makeSystem MakeSystem) {
	for _, name := range tests.names() {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := testContext(t)
			defer cancel()

			tests[name](t, ctx, func() (kmt.System, *Driver) {
				d := NewDriver(new(Memory))
				s, err := makeSystem(d)
				if err != nil {
					t.Fatalf("system initialization failed: %s", err)
				}
				return s, d
			})
		})
	}
}

const testAdapter kmt.Handle = 0x1

func createDevice(t *testing.T, ctx context.Context, s kmt.System) kmt.Handle {
	arg := kmt.CreateDevice{Adapter: testAdapter}
	assertEqual(t, s.CreateDevice(ctx, &arg), kmt.StatusSuccess)
	return arg.Device
}

func createContext(t *testing.T, ctx context.Context, s kmt.System, node uint32) *kmt.CreateContext {
	arg := &kmt.CreateContext{Device: createDevice(t, ctx, s), NodeOrdinal: node}
	assertEqual(t, s.CreateContext(ctx, arg), kmt.StatusSuccess)
	return arg
}

var device = testSuite{
	"create device returns a handle and driver buffers": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, _ := newSystem()
		arg := kmt.CreateDevice{Adapter: testAdapter}
		assertEqual(t, s.CreateDevice(ctx, &arg), kmt.StatusSuccess)
		if arg.Device == 0 {
			t.Error("device handle was not returned")
		}
		if arg.CommandBuffer.IsNull() || arg.AllocationList.IsNull() || arg.PatchLocationList.IsNull() {
			t.Errorf("driver buffers were not returned: %+v", arg)
		}
	},

	"create allocation writes the allocation handles back": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		info := d.Memory.Alloc(2 * kmt.AllocationInfo2Size)
		arg := kmt.CreateAllocation{
			Device:         createDevice(t, ctx, s),
			NumAllocations: 2,
			AllocationInfo: info,
			Flags:          1,
		}
		assertEqual(t, s.CreateAllocation(ctx, &arg), kmt.StatusSuccess)
		if arg.Resource == 0 {
			t.Error("resource handle was not returned")
		}
		b := d.Memory.Bytes(info)
		for i := 0; i < 2; i++ {
			if kmt.LoadAllocationInfo2(b[i*kmt.AllocationInfo2Size:]).Allocation == 0 {
				t.Errorf("allocation %d has no handle", i)
			}
		}
	},

	"lock maps the allocation": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, _ := newSystem()
		arg := kmt.Lock{Device: createDevice(t, ctx, s), Allocation: 0x42}
		assertEqual(t, s.Lock(ctx, &arg), kmt.StatusSuccess)
		if arg.Data.IsNull() {
			t.Error("lock did not return a pointer")
		}
	},

	"query adapter info fills the private data": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		data := d.Memory.Alloc(8)
		arg := kmt.QueryAdapterInfo{Adapter: testAdapter, Type: 0x7, PrivateDriverData: data, PrivateDriverDataSize: 8}
		assertEqual(t, s.QueryAdapterInfo(ctx, &arg), kmt.StatusSuccess)
		for i, b := range d.Memory.Bytes(data) {
			if b != 0x7 {
				t.Fatalf("byte %d of the private data is 0x%02X", i, b)
			}
		}
	},
}

var contexts = testSuite{
	"create context reports the buffers of the context": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		arg := createContext(t, ctx, s, 0)
		c, ok := d.Context(arg.Context)
		assertEqual(t, ok, true)
		assertEqual(t, arg.CommandBuffer, c.CommandBuffer)
		assertEqual(t, arg.AllocationList, c.AllocationList)
		assertEqual(t, arg.PatchLocationList, c.PatchLocationList)
	},

	"scheduling priority of an unknown context fails": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, _ := newSystem()
		arg := kmt.SetContextSchedulingPriority{Context: 0xDEAD, Priority: 1}
		assertEqual(t, s.SetContextSchedulingPriority(ctx, &arg), kmt.StatusInvalidHandle)
	},

	"scheduling priority accepts negative values": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, _ := newSystem()
		c := createContext(t, ctx, s, 0)
		arg := kmt.SetContextSchedulingPriority{Context: c.Context, Priority: -2}
		assertEqual(t, s.SetContextSchedulingPriority(ctx, &arg), kmt.StatusSuccess)
	},
}

var render = testSuite{
	"render submits the command buffer window": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		c := createContext(t, ctx, s, 0)
		b := d.Memory.Bytes(c.CommandBuffer)
		copy(b[8:], []byte{0x01, 0x00, 0x00, 0xC0, 0x02, 0x00, 0x00, 0x00})

		arg := kmt.Render{Context: c.Context, CommandOffset: 8, CommandLength: 8}
		assertEqual(t, s.Render(ctx, &arg), kmt.StatusSuccess)

		submissions := d.Submissions()
		assertEqual(t, len(submissions), 1)
		assertEqual(t, submissions[0].Context, c.Context)
		assertEqual(t, len(submissions[0].Words), 2)
		assertEqual(t, submissions[0].Words[0], uint32(0xC0000001))
		assertEqual(t, submissions[0].Words[1], uint32(2))
	},

	"render returns the next buffers of the context": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		c := createContext(t, ctx, s, 0)
		arg := kmt.Render{Context: c.Context, CommandLength: 4}
		assertEqual(t, s.Render(ctx, &arg), kmt.StatusSuccess)
		if arg.NewCommandBuffer == c.CommandBuffer {
			t.Error("command buffer was not rotated")
		}
		state, _ := d.Context(c.Context)
		assertEqual(t, arg.NewCommandBuffer, state.CommandBuffer)
		assertEqual(t, arg.NewAllocationList, state.AllocationList)
		assertEqual(t, arg.NewPatchLocationList, state.PatchLocationList)
		assertEqual(t, arg.QueuedBufferCount, uint32(1))
	},

	"render on an unknown context fails": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		arg := kmt.Render{Context: 0xBEEF, CommandLength: 4}
		assertEqual(t, s.Render(ctx, &arg), kmt.StatusInvalidHandle)
		assertEqual(t, arg.NewCommandBuffer, kmt.Pointer(0))
		assertEqual(t, len(d.Submissions()), 0)
	},

	"render past the end of the command buffer fails": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, _ := newSystem()
		c := createContext(t, ctx, s, 0)
		arg := kmt.Render{Context: c.Context, CommandOffset: c.CommandBufferSize - 4, CommandLength: 8}
		assertEqual(t, s.Render(ctx, &arg), kmt.StatusInvalidParameter)
	},
}

var status = testSuite{
	"failure statuses are returned unchanged": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		d.Fail = map[string]kmt.Status{
			kmt.EscapeSymbol:                      kmt.StatusAccessDenied,
			kmt.CreateSynchronizationObjectSymbol: kmt.StatusNoMemory,
			kmt.CreateDeviceSymbol:                kmt.Status(0xE0001234),
		}
		escape := kmt.Escape{Adapter: testAdapter}
		assertEqual(t, s.Escape(ctx, &escape), kmt.StatusAccessDenied)
		syncObject := kmt.CreateSynchronizationObject{Device: 1}
		assertEqual(t, s.CreateSynchronizationObject(ctx, &syncObject), kmt.StatusNoMemory)
		dev := kmt.CreateDevice{Adapter: testAdapter}
		assertEqual(t, s.CreateDevice(ctx, &dev), kmt.Status(0xE0001234))
		assertEqual(t, dev.Device, kmt.Handle(0))
	},

	"each call reaches the driver exactly once": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		c := createContext(t, ctx, s, 0)
		arg := kmt.Render{Context: c.Context, CommandLength: 4}
		s.Render(ctx, &arg)
		s.Render(ctx, &arg)
		assertEqual(t, d.Calls(kmt.CreateDeviceSymbol), 1)
		assertEqual(t, d.Calls(kmt.CreateContextSymbol), 1)
		assertEqual(t, d.Calls(kmt.RenderSymbol), 2)
	},

	"pending is not success": func(t *testing.T, ctx context.Context, newSystem newSystem) {
		s, d := newSystem()
		d.Fail = map[string]kmt.Status{kmt.LockSymbol: kmt.StatusPending}
		arg := kmt.Lock{Device: 1, Allocation: 2}
		assertEqual(t, s.Lock(ctx, &arg), kmt.StatusPending)
		assertEqual(t, arg.Data, kmt.Pointer(0))
	},
}
