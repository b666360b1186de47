package config_test

import (
	"strings"
	"testing"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/kmt-go/internal/config"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		scenario string
		vars     map[string]string
		config   config.Config
	}{
		{
			scenario: "defaults",
			config:   config.Config{MaxDump: kmt.DefaultMaxDump, Module: "win32u.dll"},
		},
		{
			scenario: "all variables",
			vars: map[string]string{
				config.OutputVar:    `C:\trace.txt`,
				config.DecoderVar:   `C:\pm4.wasm`,
				config.AlternateVar: "1",
				config.MaxDumpVar:   "0x1000",
				config.ModuleVar:    "gdi32.dll",
			},
			config: config.Config{
				Output:    `C:\trace.txt`,
				Decoder:   `C:\pm4.wasm`,
				Alternate: true,
				MaxDump:   0x1000,
				Module:    "gdi32.dll",
			},
		},
		{
			scenario: "empty values keep the defaults",
			vars: map[string]string{
				config.AlternateVar: "",
				config.MaxDumpVar:   "",
				config.ModuleVar:    "",
			},
			config: config.Config{MaxDump: kmt.DefaultMaxDump, Module: "win32u.dll"},
		},
		{
			scenario: "decimal dump limit",
			vars:     map[string]string{config.MaxDumpVar: "4096"},
			config:   config.Config{MaxDump: 4096, Module: "win32u.dll"},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			c, err := config.Load(env(test.vars))
			if err != nil {
				t.Fatal(err)
			}
			if c != test.config {
				t.Errorf("configuration mismatch\nwant = %+v\ngot  = %+v", test.config, c)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(env(map[string]string{
		config.AlternateVar: "maybe",
		config.MaxDumpVar:   "0",
	}))
	if err == nil {
		t.Fatal("invalid configuration accepted")
	}
	for _, name := range []string{config.AlternateVar, config.MaxDumpVar} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not mention %s: %v", name, err)
		}
	}

	_, err = config.Load(env(map[string]string{config.MaxDumpVar: "0x100000000"}))
	if err == nil {
		t.Error("dump limit overflowing 32 bits accepted")
	}
}
