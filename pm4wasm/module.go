package pm4wasm

import (
	"context"
	"io"

	"github.com/stealthrocket/wazergo"
	. "github.com/stealthrocket/wazergo/types"
)

const moduleName = "kmt"

// HostModule is the wazero host module imported by decoder plugins.
//
// It exposes a single function to the guest:
//
//	write(ptr i32, len i32) i32
//
// which appends the bytes of guest memory at [ptr:ptr+len] to the output of
// the decode call in progress.
var HostModule wazergo.HostModule[*Module] = functions{
	"write": wazergo.F1((*Module).Write),
}

// Option configures the host module.
type Option = wazergo.Option[*Module]

// WithOutput sets the writer receiving the output of calls made outside of
// Decoder.Decode, for example during the initialization of the guest.
func WithOutput(w io.Writer) Option {
	return wazergo.OptionFunc(func(m *Module) { m.Output = w })
}

type functions wazergo.Functions[*Module]

func (f functions) Name() string {
	return moduleName
}

func (f functions) Functions() wazergo.Functions[*Module] {
	return (wazergo.Functions[*Module])(f)
}

func (f functions) Instantiate(ctx context.Context, opts ...Option) (*Module, error) {
	mod := &Module{Output: io.Discard}
	wazergo.Configure(mod, opts...)
	return mod, nil
}

// Module is the state of the host module.
type Module struct {
	Output io.Writer
}

type outputKey struct{}

func withOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func (m *Module) output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return m.Output
}

func (m *Module) Write(ctx context.Context, buf Bytes) Errno {
	if _, err := m.output(ctx).Write(buf); err != nil {
		return errnoIO
	}
	return errnoSuccess
}

func (m *Module) Close(ctx context.Context) error {
	return nil
}

const (
	errnoSuccess Errno = 0
	errnoIO      Errno = 29 // EIO
)
