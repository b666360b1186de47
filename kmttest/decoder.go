package kmttest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stealthrocket/kmt-go"
)

// RecordingDecoder is a kmt.Decoder which records its inputs and writes one
// line per word.
type RecordingDecoder struct {
	// Err is returned by Decode after the words were written.
	Err error

	mutex sync.Mutex
	calls []DecodeCall
}

// DecodeCall is the input of a call to Decode.
type DecodeCall struct {
	Words     []uint32
	Alternate bool
}

var _ kmt.Decoder = (*RecordingDecoder)(nil)

func (d *RecordingDecoder) Decode(ctx context.Context, w io.Writer, words []uint32, alternate bool) error {
	d.mutex.Lock()
	d.calls = append(d.calls, DecodeCall{
		Words:     append([]uint32(nil), words...),
		Alternate: alternate,
	})
	d.mutex.Unlock()

	for i, word := range words {
		fmt.Fprintf(w, "    PKT[%d] 0x%08X\n", i, word)
	}
	return d.Err
}

// Calls returns the inputs of the calls to Decode.
func (d *RecordingDecoder) Calls() []DecodeCall {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]DecodeCall(nil), d.calls...)
}
