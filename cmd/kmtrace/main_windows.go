//go:build windows && amd64

// Command kmtrace is a DLL tracing the D3DKMT calls of the process it is
// loaded into. Build it with -buildmode=c-shared. The hooks are installed
// when the Go runtime initializes the library, on its own thread after
// DllMain has returned: calls made before then are not traced, so the DLL
// must be loaded before the process creates its first D3D device.
package main

import "C"

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/kmt-go/hook"
	"github.com/stealthrocket/kmt-go/internal/config"
	"github.com/stealthrocket/kmt-go/pm4wasm"
	"github.com/stealthrocket/kmt-go/systems/windows"
)

var tracer *kmt.Tracer

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t, err := start(context.Background())
	if err != nil {
		logger.Error("kmtrace: installing hooks", "err", err)
		os.Exit(1)
	}
	tracer = t
	logger.Info("kmtrace: hooks installed",
		"pid", os.Getpid(),
		"hooks", len(kmt.Symbols),
		"decoder", tracer.Decoder != nil,
		"alternate", tracer.Alternate,
	)
}

func start(ctx context.Context) (*kmt.Tracer, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	var output io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening trace file: %w", err)
		}
		output = f
	}

	var decoder kmt.Decoder
	if cfg.Decoder != "" {
		wasm, err := os.ReadFile(cfg.Decoder)
		if err != nil {
			return nil, fmt.Errorf("reading decoder: %w", err)
		}
		d, err := pm4wasm.Load(ctx, wasm, pm4wasm.WithOutput(output))
		if err != nil {
			return nil, fmt.Errorf("loading decoder %s: %w", cfg.Decoder, err)
		}
		decoder = d
	}

	system := new(windows.System)
	t := &kmt.Tracer{
		Writer:    output,
		System:    system,
		Memory:    windows.Memory{},
		Contexts:  kmt.NewRegistry(),
		Decoder:   decoder,
		Alternate: cfg.Alternate,
		ThreadID:  windows.ThreadID,
		MaxDump:   cfg.MaxDump,
	}
	if err := hook.Install(windows.NewPatcher(), cfg.Module, system.Hooks(t)); err != nil {
		return nil, err
	}
	return t, nil
}

func main() {}
