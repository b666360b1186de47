package kmt

import "fmt"

// Format selects how a Field is rendered.
type Format uint8

const (
	// Decimal renders an unsigned integer in base 10.
	Decimal Format = iota
	// Signed renders the low 32 bits of the value as a signed integer.
	Signed
	// Hex renders an unsigned integer as 0x followed by upper-case digits.
	Hex
	// Hex32 renders a 32 bit value zero-padded to 8 digits.
	Hex32
	// Address renders a pointer.
	Address
	// Bit renders one bit of a flags word as 0 or 1.
	Bit
	// Buffer renders a pointer and size pair as a hex dump.
	Buffer
	// Custom delegates rendering to a function.
	Custom
)

// Field describes one line (or block) of the trace of an argument structure
// of type T.
type Field[T any] struct {
	Name   string
	Format Format
	Bit    uint
	Value  func(*T) uint64
	Buffer func(*T) (Pointer, uint32)
	Custom func(*record, *T)
}

func printFields[T any](r *record, dir byte, fields []Field[T], arg *T) {
	for i := range fields {
		printField(r, dir, &fields[i], arg)
	}
}

func printField[T any](r *record, dir byte, f *Field[T], arg *T) {
	switch f.Format {
	case Decimal:
		r.printf("  %c %s = %d\n", dir, f.Name, f.Value(arg))
	case Signed:
		r.printf("  %c %s = %d\n", dir, f.Name, int32(f.Value(arg)))
	case Hex:
		r.printf("  %c %s = 0x%X\n", dir, f.Name, f.Value(arg))
	case Hex32:
		r.printf("  %c %s = 0x%08X\n", dir, f.Name, uint32(f.Value(arg)))
	case Address:
		r.printf("  %c %s = %s\n", dir, f.Name, Pointer(f.Value(arg)))
	case Bit:
		r.printf("  %c %s = %d\n", dir, f.Name, (f.Value(arg)>>f.Bit)&1)
	case Buffer:
		addr, size := f.Buffer(arg)
		r.buffer(fmt.Sprintf("  %c ", dir), f.Name, addr, size)
	case Custom:
		f.Custom(r, arg)
	default:
		panic("BUG: unknown field format")
	}
}

func decimal[T any](name string, value func(*T) uint64) Field[T] {
	return Field[T]{Name: name, Format: Decimal, Value: value}
}

func signed[T any](name string, value func(*T) uint64) Field[T] {
	return Field[T]{Name: name, Format: Signed, Value: value}
}

func hex[T any](name string, value func(*T) uint64) Field[T] {
	return Field[T]{Name: name, Format: Hex, Value: value}
}

func hex32[T any](name string, value func(*T) uint64) Field[T] {
	return Field[T]{Name: name, Format: Hex32, Value: value}
}

func address[T any](name string, value func(*T) Pointer) Field[T] {
	return Field[T]{Name: name, Format: Address, Value: func(arg *T) uint64 { return uint64(value(arg)) }}
}

func buffer[T any](name string, value func(*T) (Pointer, uint32)) Field[T] {
	return Field[T]{Name: name, Format: Buffer, Buffer: value}
}

func custom[T any](fn func(*record, *T)) Field[T] {
	return Field[T]{Format: Custom, Custom: fn}
}

// flags expands a flags word into one Bit field per named flag.
func flags[T any](prefix string, table []Flag, value func(*T) uint64) []Field[T] {
	fields := make([]Field[T], len(table))
	for i, flag := range table {
		fields[i] = Field[T]{Name: prefix + "." + flag.Name, Format: Bit, Bit: flag.Bit, Value: value}
	}
	return fields
}

func join[T any](parts ...[]Field[T]) []Field[T] {
	n := 0
	for _, part := range parts {
		n += len(part)
	}
	fields := make([]Field[T], 0, n)
	for _, part := range parts {
		fields = append(fields, part...)
	}
	return fields
}
