// Package hook installs function hooks as a single transaction.
//
// A transaction collects the hooks to install, resolving each target when it
// is attached, and applies all of them at once when committed: either every
// target is redirected to its replacement, or none is. The platform specific
// work (symbol resolution, trampolines, code patching, suspending threads) is
// delegated to a Patcher.
package hook

import (
	"errors"
	"fmt"
)

var (
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrUnsupportedPrologue = errors.New("unsupported function prologue")
	ErrCommitted           = errors.New("transaction already committed")
	ErrNoHooks             = errors.New("no hooks attached")
)

// Patcher is the platform interface used by transactions.
type Patcher interface {
	// Resolve returns the address of the function symbol exported by module.
	Resolve(module, symbol string) (uintptr, error)

	// Trampoline returns the address of a function which behaves like the
	// unmodified target, without modifying the target itself.
	Trampoline(target uintptr) (uintptr, error)

	// Freeze suspends every other thread of the process and returns the
	// function resuming them.
	Freeze() (thaw func(), err error)

	// Redirect makes calls to target jump to replacement.
	Redirect(target, replacement uintptr) error

	// Restore undoes a successful Redirect of target.
	Restore(target uintptr) error
}

// Hook binds an exported function to its replacement.
type Hook struct {
	// Symbol is the name of the hooked function.
	Symbol string
	// Original receives the address of the trampoline reaching the
	// unmodified function when the transaction is committed.
	Original *uintptr
	// Replacement is the address of the function called instead.
	Replacement uintptr
}

type pending struct {
	Hook
	target     uintptr
	trampoline uintptr
}

// Transaction is a set of hooks applied atomically.
//
// Transactions are not safe for concurrent use.
type Transaction struct {
	patcher   Patcher
	module    string
	pending   []pending
	errors    []error
	committed bool
}

// Begin opens a transaction hooking functions exported by module.
func Begin(patcher Patcher, module string) *Transaction {
	return &Transaction{patcher: patcher, module: module}
}

// Attach adds a hook to the transaction. The target is resolved immediately;
// resolution errors are reported by Commit.
func (tx *Transaction) Attach(symbol string, original *uintptr, replacement uintptr) {
	if tx.committed {
		tx.errors = append(tx.errors, fmt.Errorf("%s: %w", symbol, ErrCommitted))
		return
	}
	if original == nil || replacement == 0 {
		tx.errors = append(tx.errors, fmt.Errorf("%s: invalid hook", symbol))
		return
	}
	target, err := tx.patcher.Resolve(tx.module, symbol)
	if err != nil {
		tx.errors = append(tx.errors, fmt.Errorf("%s!%s: %w", tx.module, symbol, err))
		return
	}
	if target == 0 {
		tx.errors = append(tx.errors, fmt.Errorf("%s!%s: %w", tx.module, symbol, ErrSymbolNotFound))
		return
	}
	tx.pending = append(tx.pending, pending{
		Hook:   Hook{Symbol: symbol, Original: original, Replacement: replacement},
		target: target,
	})
}

// Commit applies every attached hook.
//
// Nothing is patched if any hook failed to attach or to build its trampoline.
// The Original pointer of each hook is set before any target is redirected,
// so a replacement may be entered as soon as its target is patched. If a
// redirection fails the targets already redirected are restored and the
// Original pointers are reset to zero.
func (tx *Transaction) Commit() error {
	if tx.committed {
		return ErrCommitted
	}
	tx.committed = true

	if len(tx.errors) != 0 {
		return fmt.Errorf("hook: %d of %d hooks failed to attach: %w",
			len(tx.errors), len(tx.errors)+len(tx.pending), errors.Join(tx.errors...))
	}
	if len(tx.pending) == 0 {
		return ErrNoHooks
	}

	for i := range tx.pending {
		p := &tx.pending[i]
		trampoline, err := tx.patcher.Trampoline(p.target)
		if err != nil {
			tx.reset()
			return fmt.Errorf("hook: %s!%s: trampoline: %w", tx.module, p.Symbol, err)
		}
		p.trampoline = trampoline
	}
	for i := range tx.pending {
		*tx.pending[i].Original = tx.pending[i].trampoline
	}

	thaw, err := tx.patcher.Freeze()
	if err != nil {
		tx.reset()
		return fmt.Errorf("hook: suspending threads: %w", err)
	}
	defer thaw()

	for i := range tx.pending {
		p := &tx.pending[i]
		if err := tx.patcher.Redirect(p.target, p.Replacement); err != nil {
			tx.rollback(i)
			tx.reset()
			return fmt.Errorf("hook: %s!%s: redirect: %w", tx.module, p.Symbol, err)
		}
	}
	return nil
}

// rollback restores the first n redirected targets, in reverse order.
func (tx *Transaction) rollback(n int) {
	for i := n - 1; i >= 0; i-- {
		tx.patcher.Restore(tx.pending[i].target)
	}
}

func (tx *Transaction) reset() {
	for i := range tx.pending {
		*tx.pending[i].Original = 0
	}
}

// Install attaches every hook of the table to functions exported by module
// and commits them as one transaction.
func Install(patcher Patcher, module string, hooks []Hook) error {
	tx := Begin(patcher, module)
	for _, h := range hooks {
		tx.Attach(h.Symbol, h.Original, h.Replacement)
	}
	return tx.Commit()
}
