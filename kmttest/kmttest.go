// Package kmttest provides test doubles for the kmt package: a fake address
// space, a simulation of the display kernel, a recording decoder, and a test
// suite validating kmt.System implementations layered on top of a driver.
package kmttest

import (
	"context"
	"testing"
)

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	ctx, cancel := context.Background(), func() {}
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(ctx, deadline)
	}
	return ctx, cancel
}

func assertEqual[T comparable](t *testing.T, got, want T) {
	if got != want {
		t.Helper()
		t.Fatalf("%T values mismatch\nwant = %+v\ngot  = %+v", want, want, got)
	}
}
