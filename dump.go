package kmt

import (
	"fmt"
	"io"
	"strings"
)

// DefaultMaxDump is the default limit on the number of bytes dumped for a
// single buffer.
const DefaultMaxDump = 1 << 20

const hexDigits = "0123456789ABCDEF"

// Dump writes a hex dump of b to w, 16 bytes per line grouped by 4, each line
// prefixed with indent and the offset of its first byte. Nothing is written
// for an empty slice.
func Dump(w io.Writer, indent string, b []byte) {
	line := make([]byte, 0, len(indent)+64)
	for offset := 0; offset < len(b); offset += 16 {
		row := b[offset:]
		if len(row) > 16 {
			row = row[:16]
		}
		line = append(line[:0], indent...)
		line = appendHex32(line, uint32(offset))
		line = append(line, ' ')
		for i, c := range row {
			if i%4 == 0 {
				line = append(line, ' ')
			}
			line = append(line, ' ', hexDigits[c>>4], hexDigits[c&0xF])
		}
		line = append(line, '\n')
		w.Write(line)
	}
}

func appendHex32(b []byte, v uint32) []byte {
	for shift := 28; shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(v>>uint(shift))&0xF])
	}
	return b
}

// writeBuffer writes the header line of a buffer followed by its hex dump.
//
// A null pointer, an empty buffer, an unreadable range and a clamped dump all
// produce distinct headers. No more than min(size, max) bytes are read.
func writeBuffer(w io.Writer, mem Memory, max uint32, prefix, name string, addr Pointer, size uint32) {
	switch {
	case addr.IsNull():
		fmt.Fprintf(w, "%s%s = NULL (0x%X bytes)\n", prefix, name, size)
		return
	case size == 0:
		fmt.Fprintf(w, "%s%s = %s (0x0 bytes)\n", prefix, name, addr)
		return
	}

	n := size
	if max != 0 && n > max {
		n = max
	}
	var data []byte
	var ok bool
	if mem != nil {
		data, ok = mem.Read(addr, n)
	}
	switch {
	case !ok:
		fmt.Fprintf(w, "%s%s = %s (0x%X bytes): <unreadable>\n", prefix, name, addr, size)
		return
	case n < size:
		fmt.Fprintf(w, "%s%s = %s (0x%X of 0x%X bytes):\n", prefix, name, addr, n, size)
	default:
		fmt.Fprintf(w, "%s%s = %s (0x%X bytes):\n", prefix, name, addr, size)
	}
	if uint32(len(data)) > n {
		data = data[:n]
	}
	Dump(w, strings.Repeat(" ", len(prefix)+2), data)
}
