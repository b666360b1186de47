package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stealthrocket/kmt-go"
)

func TestParseDump(t *testing.T) {
	data := make([]byte, 37)
	for i := range data {
		data[i] = byte(i * 7)
	}

	var trace strings.Builder
	trace.WriteString("NtGdiDdDDIRender @ 12:\n  > pCommandBuffer = 0x0000000010000000 (0x25 bytes):\n")
	kmt.Dump(&trace, "      ", data)

	b, err := parseDump(strings.NewReader(trace.String()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, data) {
		t.Errorf("wrong bytes\nwant = % X\ngot  = % X", data, b)
	}
}

func TestParseDumpErrors(t *testing.T) {
	for _, input := range []string{
		"00000010   00 01 02 03\n",
		"00000000   00 01 0203\n",
		"00000000   00 01 ZZ 03\n",
	} {
		if _, err := parseDump(strings.NewReader(input)); err == nil {
			t.Errorf("invalid dump accepted: %q", input)
		}
	}
}

func TestReader(t *testing.T) {
	if _, err := reader("hex"); err == nil {
		t.Error("unknown format accepted")
	}
	read, err := reader("raw")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := read(strings.NewReader("\x01\x02"))
	if string(b) != "\x01\x02" {
		t.Errorf("raw reader modified the input: %q", b)
	}
}
