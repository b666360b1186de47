package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseDump reads the bytes of a hex dump in the format written by kmt.Dump.
// Lines which do not start with an offset, such as the buffer headers of a
// trace, are skipped. The offsets must be contiguous.
func parseDump(r io.Reader) ([]byte, error) {
	var b []byte
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		fields := strings.Fields(s.Text())
		if len(fields) < 2 || len(fields[0]) != 8 {
			continue
		}
		offset, err := strconv.ParseUint(fields[0], 16, 32)
		if err != nil {
			continue
		}
		if offset != uint64(len(b)) {
			return nil, fmt.Errorf("line %d: offset 0x%X, expected 0x%X", line, offset, len(b))
		}
		for _, field := range fields[1:] {
			v, err := strconv.ParseUint(field, 16, 8)
			if err != nil || len(field) != 2 {
				return nil, fmt.Errorf("line %d: invalid byte %q", line, field)
			}
			b = append(b, byte(v))
		}
	}
	return b, s.Err()
}
