package kmttest

import (
	"bytes"
	"strings"
	"sync"
)

// Buffer is a bytes.Buffer safe for concurrent use, to capture traces of
// concurrent calls.
type Buffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
	writes []string
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writes = append(b.writes, string(p))
	return b.buffer.Write(p)
}

func (b *Buffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}

// Writes returns the content of each call to Write.
func (b *Buffer) Writes() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]string(nil), b.writes...)
}

// Blocks splits the captured trace into call blocks, each block ending with
// the empty line terminating it.
func (b *Buffer) Blocks() []string {
	text := b.String()
	var blocks []string
	for text != "" {
		i := strings.Index(text, "\n\n")
		if i < 0 {
			blocks = append(blocks, text)
			break
		}
		blocks = append(blocks, text[:i+2])
		text = text[i+2:]
	}
	return blocks
}
