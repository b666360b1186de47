package kmt

import (
	"context"
	"io"
)

// Decoder turns a window of a command buffer into human readable packets.
//
// The packet grammar is private to the implementation. The alternate flag
// selects the second supported hardware generation.
type Decoder interface {
	Decode(ctx context.Context, w io.Writer, words []uint32, alternate bool) error
}

// DecoderFunc is an adapter to use a function as a Decoder.
type DecoderFunc func(ctx context.Context, w io.Writer, words []uint32, alternate bool) error

func (f DecoderFunc) Decode(ctx context.Context, w io.Writer, words []uint32, alternate bool) error {
	return f(ctx, w, words, alternate)
}
