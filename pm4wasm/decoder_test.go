package pm4wasm_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/kmt-go/kmttest"
	"github.com/stealthrocket/kmt-go/pm4wasm"
)

// testdata/echo.wasm writes "decoded\n" followed by the raw bytes of the
// words it receives, and returns the alternate flag as its status.
func loadEcho(t *testing.T) *pm4wasm.Decoder {
	t.Helper()
	wasm, err := os.ReadFile("testdata/echo.wasm")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	d, err := pm4wasm.Load(ctx, wasm)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close(ctx) })
	return d
}

func TestDecode(t *testing.T) {
	d := loadEcho(t)

	var out strings.Builder
	if err := d.Decode(context.Background(), &out, []uint32{0x0A414141, 0x0A424242}, false); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "decoded\nAAA\nBBB\n"; got != want {
		t.Errorf("wrong output:\nwant = %q\ngot  = %q", want, got)
	}
}

func TestDecodeAlternateFailure(t *testing.T) {
	d := loadEcho(t)

	var out strings.Builder
	err := d.Decode(context.Background(), &out, []uint32{0x0A414141}, true)

	var decodeError *pm4wasm.DecodeError
	if !errors.As(err, &decodeError) {
		t.Fatalf("wrong error: %v", err)
	}
	if decodeError.Code != 1 {
		t.Errorf("wrong code: %d", decodeError.Code)
	}
	if out.String() != "decoded\nAAA\n" {
		t.Errorf("output written before the failure was lost: %q", out.String())
	}
}

func TestDecodeOutOfBounds(t *testing.T) {
	d := loadEcho(t)

	// one page of memory, the buffer starts at offset 1024
	words := make([]uint32, 65536/4)
	err := d.Decode(context.Background(), new(strings.Builder), words, false)
	if !errors.Is(err, pm4wasm.ErrOutOfBounds) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestDecodeConcurrent(t *testing.T) {
	d := loadEcho(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(c byte) {
			defer wg.Done()
			word := uint32(c) | uint32(c)<<8 | uint32(c)<<16 | '\n'<<24
			for n := 0; n < 100; n++ {
				var out strings.Builder
				if err := d.Decode(context.Background(), &out, []uint32{word}, false); err != nil {
					t.Error(err)
					return
				}
				if want := "decoded\n" + strings.Repeat(string(c), 3) + "\n"; out.String() != want {
					t.Errorf("output of concurrent calls mixed: %q", out.String())
					return
				}
			}
		}('A' + byte(i))
	}
	wg.Wait()
}

func TestLoadMissingExports(t *testing.T) {
	// empty module: magic and version only
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	_, err := pm4wasm.Load(context.Background(), wasm)
	if !errors.Is(err, pm4wasm.ErrMissingExport) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestTracerWithPlugin(t *testing.T) {
	d := loadEcho(t)
	driver := kmttest.NewDriver(new(kmttest.Memory))
	output := new(kmttest.Buffer)
	tracer := &kmt.Tracer{
		Writer:   output,
		System:   driver,
		Memory:   driver.Memory,
		Contexts: kmt.NewRegistry(),
		Decoder:  d,
	}
	ctx := context.Background()

	device := kmt.CreateDevice{Adapter: 1}
	tracer.CreateDevice(ctx, &device)
	c := kmt.CreateContext{Device: device.Device}
	tracer.CreateContext(ctx, &c)
	copy(driver.Memory.Bytes(c.CommandBuffer), "XYZ\n")

	render := kmt.Render{Context: c.Context, CommandLength: 4}
	if status := tracer.Render(ctx, &render); status != kmt.StatusSuccess {
		t.Fatalf("render failed: %s", status)
	}
	if !strings.Contains(output.String(), "decoded\nXYZ\n") {
		t.Errorf("plugin output missing from the trace:\n%s", output.String())
	}
}
