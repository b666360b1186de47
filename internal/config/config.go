// Package config reads the settings of the tracer from the environment.
//
// The tracer is loaded into an existing process and has no command line, so
// every setting comes from a KMTRACE_* environment variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/stealthrocket/kmt-go"
)

const (
	OutputVar    = "KMTRACE_OUTPUT"
	DecoderVar   = "KMTRACE_DECODER"
	AlternateVar = "KMTRACE_ALTERNATE"
	MaxDumpVar   = "KMTRACE_MAX_DUMP"
	ModuleVar    = "KMTRACE_MODULE"
)

// Config holds the settings of the tracer.
type Config struct {
	// Output is the path of the trace file. Empty means standard output.
	Output string
	// Decoder is the path of a WebAssembly command buffer decoder. Empty
	// disables decoding.
	Decoder string
	// Alternate selects the second hardware generation of the decoder.
	Alternate bool
	// MaxDump limits the bytes dumped per buffer.
	MaxDump uint32
	// Module is the library exporting the hooked entry points.
	Module string
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		MaxDump: kmt.DefaultMaxDump,
		Module:  kmt.Module,
	}
}

// FromEnv reads the settings from the process environment.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load reads the settings through lookup. Every invalid variable is
// reported.
func Load(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var errs []error

	if v, ok := lookup(OutputVar); ok {
		c.Output = v
	}
	if v, ok := lookup(DecoderVar); ok {
		c.Decoder = v
	}
	if v, ok := lookup(ModuleVar); ok && v != "" {
		c.Module = v
	}
	if v, ok := lookup(AlternateVar); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", AlternateVar, err))
		}
		c.Alternate = b
	}
	if v, ok := lookup(MaxDumpVar); ok && v != "" {
		n, err := strconv.ParseUint(v, 0, 32)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", MaxDumpVar, err))
		case n == 0:
			errs = append(errs, fmt.Errorf("%s: must be positive", MaxDumpVar))
		default:
			c.MaxDump = uint32(n)
		}
	}
	return c, errors.Join(errs...)
}
