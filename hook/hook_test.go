package hook_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stealthrocket/kmt-go/hook"
)

// patcher is an in-memory hook.Patcher. Functions are identified by address,
// the code map tells which replacement each target jumps to.
type patcher struct {
	symbols     map[string]uintptr
	code        map[uintptr]uintptr
	next        uintptr
	frozen      bool
	thawed      int
	failFreeze  error
	failRedir   map[uintptr]error
	failTramp   map[uintptr]error
	log         []string
	trampolines map[uintptr]uintptr
}

func newPatcher(symbols ...string) *patcher {
	p := &patcher{
		symbols:     make(map[string]uintptr),
		code:        make(map[uintptr]uintptr),
		next:        0x9000,
		trampolines: make(map[uintptr]uintptr),
	}
	for i, s := range symbols {
		p.symbols[s] = uintptr(0x1000 * (i + 1))
	}
	return p
}

func (p *patcher) Resolve(module, symbol string) (uintptr, error) {
	addr, ok := p.symbols[symbol]
	if !ok {
		return 0, hook.ErrSymbolNotFound
	}
	return addr, nil
}

func (p *patcher) Trampoline(target uintptr) (uintptr, error) {
	if err := p.failTramp[target]; err != nil {
		return 0, err
	}
	p.next += 0x10
	p.trampolines[p.next] = target
	p.log = append(p.log, fmt.Sprintf("trampoline 0x%X", target))
	return p.next, nil
}

func (p *patcher) Freeze() (func(), error) {
	if p.failFreeze != nil {
		return nil, p.failFreeze
	}
	p.frozen = true
	p.log = append(p.log, "freeze")
	return func() {
		p.frozen = false
		p.thawed++
		p.log = append(p.log, "thaw")
	}, nil
}

func (p *patcher) Redirect(target, replacement uintptr) error {
	if !p.frozen {
		return errors.New("redirect while threads are running")
	}
	if err := p.failRedir[target]; err != nil {
		return err
	}
	p.code[target] = replacement
	p.log = append(p.log, fmt.Sprintf("redirect 0x%X", target))
	return nil
}

func (p *patcher) Restore(target uintptr) error {
	delete(p.code, target)
	p.log = append(p.log, fmt.Sprintf("restore 0x%X", target))
	return nil
}

func TestInstall(t *testing.T) {
	p := newPatcher("A", "B", "C")
	var a, b, c uintptr

	err := hook.Install(p, "test.dll", []hook.Hook{
		{Symbol: "A", Original: &a, Replacement: 0xA0},
		{Symbol: "B", Original: &b, Replacement: 0xB0},
		{Symbol: "C", Original: &c, Replacement: 0xC0},
	})
	assertOK(t, err)

	assertEqual(t, p.code, map[uintptr]uintptr{0x1000: 0xA0, 0x2000: 0xB0, 0x3000: 0xC0})
	assertEqual(t, p.trampolines[a], uintptr(0x1000))
	assertEqual(t, p.trampolines[b], uintptr(0x2000))
	assertEqual(t, p.trampolines[c], uintptr(0x3000))
	assertEqual(t, p.thawed, 1)
	assertEqual(t, p.log, []string{
		"trampoline 0x1000",
		"trampoline 0x2000",
		"trampoline 0x3000",
		"freeze",
		"redirect 0x1000",
		"redirect 0x2000",
		"redirect 0x3000",
		"thaw",
	})
}

func TestInstallMissingSymbol(t *testing.T) {
	p := newPatcher("A", "C")
	var a, b, c uintptr

	err := hook.Install(p, "test.dll", []hook.Hook{
		{Symbol: "A", Original: &a, Replacement: 0xA0},
		{Symbol: "B", Original: &b, Replacement: 0xB0},
		{Symbol: "C", Original: &c, Replacement: 0xC0},
	})
	if !errors.Is(err, hook.ErrSymbolNotFound) {
		t.Fatalf("wrong error: %v", err)
	}
	assertEqual(t, len(p.code), 0)
	assertEqual(t, len(p.log), 0)
	assertEqual(t, a, uintptr(0))
	assertEqual(t, b, uintptr(0))
	assertEqual(t, c, uintptr(0))
}

func TestInstallRollback(t *testing.T) {
	p := newPatcher("A", "B", "C")
	p.failRedir = map[uintptr]error{0x3000: errors.New("access denied")}
	var a, b, c uintptr

	err := hook.Install(p, "test.dll", []hook.Hook{
		{Symbol: "A", Original: &a, Replacement: 0xA0},
		{Symbol: "B", Original: &b, Replacement: 0xB0},
		{Symbol: "C", Original: &c, Replacement: 0xC0},
	})
	if err == nil {
		t.Fatal("install succeeded")
	}
	assertEqual(t, len(p.code), 0)
	assertEqual(t, p.log[len(p.log)-3:], []string{
		"restore 0x2000",
		"restore 0x1000",
		"thaw",
	})
	assertEqual(t, a, uintptr(0))
	assertEqual(t, b, uintptr(0))
	assertEqual(t, c, uintptr(0))
}

func TestInstallTrampolineFailure(t *testing.T) {
	p := newPatcher("A", "B")
	p.failTramp = map[uintptr]error{0x2000: hook.ErrUnsupportedPrologue}
	var a, b uintptr

	err := hook.Install(p, "test.dll", []hook.Hook{
		{Symbol: "A", Original: &a, Replacement: 0xA0},
		{Symbol: "B", Original: &b, Replacement: 0xB0},
	})
	if !errors.Is(err, hook.ErrUnsupportedPrologue) {
		t.Fatalf("wrong error: %v", err)
	}
	assertEqual(t, len(p.code), 0)
	assertEqual(t, p.thawed, 0)
	assertEqual(t, a, uintptr(0))
}

func TestInstallFreezeFailure(t *testing.T) {
	p := newPatcher("A")
	p.failFreeze = errors.New("snapshot failed")
	var a uintptr

	err := hook.Install(p, "test.dll", []hook.Hook{{Symbol: "A", Original: &a, Replacement: 0xA0}})
	if !errors.Is(err, p.failFreeze) {
		t.Fatalf("wrong error: %v", err)
	}
	assertEqual(t, len(p.code), 0)
	assertEqual(t, a, uintptr(0))
}

func TestTransactionErrors(t *testing.T) {
	p := newPatcher("A")

	if err := hook.Begin(p, "test.dll").Commit(); !errors.Is(err, hook.ErrNoHooks) {
		t.Errorf("committing an empty transaction: %v", err)
	}

	var a uintptr
	tx := hook.Begin(p, "test.dll")
	tx.Attach("A", &a, 0xA0)
	assertOK(t, tx.Commit())
	if err := tx.Commit(); !errors.Is(err, hook.ErrCommitted) {
		t.Errorf("committing twice: %v", err)
	}

	tx = hook.Begin(p, "test.dll")
	tx.Attach("A", nil, 0xA0)
	if err := tx.Commit(); err == nil {
		t.Error("hook without an original pointer was accepted")
	}
}

func assertOK(t *testing.T, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertEqual[T any](t *testing.T, actual, expected T) {
	t.Helper()

	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("%v != %v", actual, expected)
	}
}
