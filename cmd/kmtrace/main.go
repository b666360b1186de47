//go:build !(windows && amd64)

package main

import (
	"log/slog"
	"os"
	"runtime"
)

func main() {
	slog.Error("kmtrace: unsupported platform", "os", runtime.GOOS, "arch", runtime.GOARCH)
	os.Exit(1)
}
