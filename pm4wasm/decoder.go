// Package pm4wasm runs command buffer decoders compiled to WebAssembly.
//
// A decoder plugin is a WebAssembly module exporting its memory and two
// functions:
//
//	kmt_alloc(size i32) i32
//	kmt_decode(ptr i32, count i32, alternate i32) i32
//
// kmt_alloc returns the offset of a buffer of at least size bytes in the
// guest memory. The host copies the command buffer words there, in little
// endian order, and calls kmt_decode with the number of words and the
// alternate generation flag. The guest prints the packets it decodes with the
// write function of the host module, and returns zero on success.
package pm4wasm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/wazergo"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	allocFunction  = "kmt_alloc"
	decodeFunction = "kmt_decode"
)

var (
	ErrMissingExport = errors.New("missing export")
	ErrOutOfBounds   = errors.New("command buffer does not fit in guest memory")
)

// DecodeError is returned when the guest reports a failure.
type DecodeError struct {
	Code uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoder returned %d", e.Code)
}

// Decoder is a kmt.Decoder backed by a WebAssembly plugin.
//
// The guest is single threaded: concurrent calls to Decode are serialized.
type Decoder struct {
	mutex   sync.Mutex
	runtime wazero.Runtime
	host    *wazergo.ModuleInstance[*Module]
	guest   api.Module
	alloc   api.Function
	decode  api.Function
	buffer  []byte
}

var _ kmt.Decoder = (*Decoder)(nil)

// Load compiles and instantiates the decoder plugin in wasm.
func Load(ctx context.Context, wasm []byte, opts ...Option) (*Decoder, error) {
	runtime := wazero.NewRuntime(ctx)

	host, err := wazergo.Instantiate(ctx, runtime, HostModule, opts...)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating host module: %w", err)
	}
	ctx = wazergo.WithModuleInstance(ctx, host)

	guest, err := runtime.InstantiateWithConfig(ctx, wasm, wazero.NewModuleConfig().WithName("decoder"))
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating decoder: %w", err)
	}

	d := &Decoder{
		runtime: runtime,
		host:    host,
		guest:   guest,
		alloc:   guest.ExportedFunction(allocFunction),
		decode:  guest.ExportedFunction(decodeFunction),
	}
	for name, export := range map[string]bool{
		"memory":       guest.Memory() != nil,
		allocFunction:  d.alloc != nil,
		decodeFunction: d.decode != nil,
	} {
		if !export {
			err = errors.Join(err, fmt.Errorf("%w: %s", ErrMissingExport, name))
		}
	}
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	return d, nil
}

func (d *Decoder) Decode(ctx context.Context, w io.Writer, words []uint32, alternate bool) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	ctx = wazergo.WithModuleInstance(ctx, d.host)
	ctx = withOutput(ctx, w)

	size := uint64(len(words)) * 4
	if size > 1<<31 {
		return ErrOutOfBounds
	}
	res, err := d.alloc.Call(ctx, size)
	if err != nil {
		return fmt.Errorf("%s: %w", allocFunction, err)
	}
	ptr := uint32(res[0])

	if cap(d.buffer) < int(size) {
		d.buffer = make([]byte, size)
	}
	b := d.buffer[:size]
	for i, word := range words {
		binary.LittleEndian.PutUint32(b[4*i:], word)
	}
	if !d.guest.Memory().Write(ptr, b) {
		return fmt.Errorf("%w: %d bytes at offset %d", ErrOutOfBounds, size, ptr)
	}

	var alt uint64
	if alternate {
		alt = 1
	}
	res, err = d.decode.Call(ctx, uint64(ptr), uint64(len(words)), alt)
	if err != nil {
		return fmt.Errorf("%s: %w", decodeFunction, err)
	}
	if len(res) > 0 && uint32(res[0]) != 0 {
		return &DecodeError{Code: uint32(res[0])}
	}
	return nil
}

// Close releases the runtime of the plugin.
func (d *Decoder) Close(ctx context.Context) error {
	return d.runtime.Close(ctx)
}
