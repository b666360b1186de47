package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/stealthrocket/kmt-go"
	"github.com/stealthrocket/kmt-go/pm4wasm"
)

const Version = "devel"

var (
	plugin    string
	format    string
	alternate bool
	version   bool
	help      bool
	h         bool
)

func main() {
	flag.StringVar(&plugin, "plugin", "", "Path of the WebAssembly decoder.")
	flag.StringVar(&format, "format", "raw", "Input format: raw or dump.")
	flag.BoolVar(&alternate, "alternate", false, "Decode for the alternate hardware generation.")
	flag.BoolVar(&version, "version", false, "Print the version and exit.")
	flag.BoolVar(&help, "help", false, "Print usage information.")
	flag.BoolVar(&h, "h", false, "Print usage information.")
	flag.Parse()

	if version {
		fmt.Println("kmtdecode", Version)
		os.Exit(0)
	} else if h || help {
		showUsage()
		os.Exit(0)
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Printf(`kmtdecode - Decode command buffers captured by kmtrace

USAGE:
   kmtdecode --plugin <WASM> [OPTIONS]... [FILE]...

ARGS:
   [FILE]...
      Files holding command buffers, standard input if none is given

OPTIONS:
   --plugin <WASM>
      The WebAssembly decoder to run

   --format <raw|dump>
      Read raw little endian words, or hex dumps copied from a trace

   --alternate
      Decode for the alternate hardware generation

   --version
      Print the version and exit

   -h, --help
      Show this usage information
`)
}

func run(args []string) error {
	if plugin == "" {
		return fmt.Errorf("usage: kmtdecode --plugin <WASM> [OPTIONS]... [FILE]...")
	}
	read, err := reader(format)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(plugin)
	if err != nil {
		return fmt.Errorf("could not read WASM file '%s': %w", plugin, err)
	}

	ctx := context.Background()
	decoder, err := pm4wasm.Load(ctx, wasm, pm4wasm.WithOutput(os.Stdout))
	if err != nil {
		return err
	}
	defer decoder.Close(ctx)

	if len(args) == 0 {
		return decode(ctx, decoder, os.Stdout, os.Stdin, read)
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = decode(ctx, decoder, os.Stdout, f, read)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

type readFunc func(io.Reader) ([]byte, error)

func reader(format string) (readFunc, error) {
	switch format {
	case "raw":
		return io.ReadAll, nil
	case "dump":
		return parseDump, nil
	default:
		return nil, fmt.Errorf("unknown input format: %q", format)
	}
}

func decode(ctx context.Context, decoder kmt.Decoder, w io.Writer, r io.Reader, read readFunc) error {
	b, err := read(r)
	if err != nil {
		return err
	}
	if len(b)%4 != 0 {
		fmt.Fprintf(os.Stderr, "warning: ignoring %d trailing bytes\n", len(b)%4)
	}
	return decoder.Decode(ctx, w, kmt.Words(b), alternate)
}
