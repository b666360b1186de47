//go:build windows && amd64

package windows

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/stealthrocket/kmt-go/hook"
	syswindows "golang.org/x/sys/windows"
)

const threadAccess = syswindows.SYNCHRONIZE |
	syswindows.THREAD_SUSPEND_RESUME |
	syswindows.THREAD_GET_CONTEXT |
	syswindows.THREAD_SET_CONTEXT

var (
	kernel32                  = syswindows.NewLazySystemDLL("kernel32.dll")
	procSuspendThread         = kernel32.NewProc("SuspendThread")
	procGetThreadContext      = kernel32.NewProc("GetThreadContext")
	procSetThreadContext      = kernel32.NewProc("SetThreadContext")
	procFlushInstructionCache = kernel32.NewProc("FlushInstructionCache")
)

const trampolinePageSize = 4096

// Patcher implements hook.Patcher by rewriting the first bytes of system
// call stubs in the current process.
type Patcher struct {
	mutex   sync.Mutex
	page    uintptr
	used    uintptr
	patches map[uintptr]*patch
	frozen  []syswindows.Handle
	context *threadContext
}

type patch struct {
	trampoline uintptr
	original   [jumpSize]byte
	redirected bool
}

var _ hook.Patcher = (*Patcher)(nil)

// NewPatcher returns a patcher operating on the current process.
func NewPatcher() *Patcher {
	return &Patcher{
		patches: make(map[uintptr]*patch),
		context: newThreadContext(),
	}
}

func (p *Patcher) Resolve(module, symbol string) (uintptr, error) {
	proc := syswindows.NewLazySystemDLL(module).NewProc(symbol)
	if err := proc.Find(); err != nil {
		return 0, fmt.Errorf("%w: %w", hook.ErrSymbolNotFound, err)
	}
	addr := proc.Addr()
	if _, err := checkStub(code(addr, stubSize)); err != nil {
		return 0, fmt.Errorf("%w: %w", hook.ErrUnsupportedPrologue, err)
	}
	return addr, nil
}

// Trampoline copies the stub at target to executable memory owned by the
// patcher. The bytes later overwritten by Redirect are saved at the same
// time, so that no memory is allocated while threads are frozen.
func (p *Patcher) Trampoline(target uintptr) (uintptr, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stub := code(target, stubSize)
	if _, err := checkStub(stub); err != nil {
		return 0, fmt.Errorf("%w: %w", hook.ErrUnsupportedPrologue, err)
	}

	if p.page == 0 || p.used+stubSize > trampolinePageSize {
		page, err := syswindows.VirtualAlloc(0, trampolinePageSize,
			syswindows.MEM_COMMIT|syswindows.MEM_RESERVE, syswindows.PAGE_EXECUTE_READ)
		if err != nil {
			return 0, fmt.Errorf("allocating trampoline page: %w", err)
		}
		p.page, p.used = page, 0
	}
	addr := p.page + p.used
	if err := write(addr, stub); err != nil {
		return 0, err
	}
	p.used += stubSize

	if _, ok := p.patches[target]; !ok {
		pt := &patch{trampoline: addr}
		copy(pt.original[:], stub)
		p.patches[target] = pt
	}
	return addr, nil
}

// Freeze suspends every thread of the process except the calling one. The
// calling goroutine stays locked to its thread until the returned function
// is called.
//
// The thread list is collected and every handle opened before the first
// thread is suspended: a suspended thread may hold the heap lock. If a live
// thread cannot be suspended, the threads already suspended are resumed and
// an error is returned.
func (p *Patcher) Freeze() (func(), error) {
	runtime.LockOSThread()

	pid := syswindows.GetCurrentProcessId()
	self := syswindows.GetCurrentThreadId()

	snapshot, err := syswindows.CreateToolhelp32Snapshot(syswindows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("thread snapshot: %w", err)
	}
	defer syswindows.CloseHandle(snapshot)

	threads := p.frozen[:0]
	entry := syswindows.ThreadEntry32{Size: uint32(unsafe.Sizeof(syswindows.ThreadEntry32{}))}
	for err = syswindows.Thread32First(snapshot, &entry); err == nil; err = syswindows.Thread32Next(snapshot, &entry) {
		if entry.OwnerProcessID != pid || entry.ThreadID == self {
			continue
		}
		thread, err := syswindows.OpenThread(threadAccess, false, entry.ThreadID)
		if err != nil {
			// The thread exited since the snapshot was taken.
			continue
		}
		threads = append(threads, thread)
	}

	suspended := threads[:0]
	for i, thread := range threads {
		r, _, errno := procSuspendThread.Call(uintptr(thread))
		if !suspendFailed(r) {
			suspended = append(suspended, thread)
			continue
		}
		if exited(thread) {
			syswindows.CloseHandle(thread)
			continue
		}
		resume(suspended)
		for _, h := range threads[i:] {
			syswindows.CloseHandle(h)
		}
		p.frozen = suspended[:0]
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("suspending thread: %w", errno)
	}
	p.frozen = suspended

	return func() {
		resume(p.frozen)
		p.frozen = p.frozen[:0]
		runtime.UnlockOSThread()
	}, nil
}

func resume(threads []syswindows.Handle) {
	for _, thread := range threads {
		syswindows.ResumeThread(thread)
		syswindows.CloseHandle(thread)
	}
}

func exited(thread syswindows.Handle) bool {
	event, err := syswindows.WaitForSingleObject(thread, 0)
	return err == nil && event == syswindows.WAIT_OBJECT_0
}

// Redirect writes the jump to replacement over target. Frozen threads stopped
// within the overwritten bytes are moved to the same instruction in the
// trampoline first, so none of them resumes in the middle of the jump.
func (p *Patcher) Redirect(target, replacement uintptr) error {
	pt := p.patches[target]
	if pt == nil {
		return fmt.Errorf("no trampoline for 0x%X", target)
	}
	for _, thread := range p.frozen {
		if err := p.relocateThread(thread, target, pt.trampoline); err != nil {
			return err
		}
	}
	var jump [jumpSize]byte
	encodeJump(jump[:], replacement)
	if err := write(target, jump[:]); err != nil {
		return err
	}
	pt.redirected = true
	return nil
}

func (p *Patcher) relocateThread(thread syswindows.Handle, target, trampoline uintptr) error {
	c := p.context
	*c = threadContext{ContextFlags: contextControl}
	if r, _, errno := procGetThreadContext.Call(uintptr(thread), uintptr(unsafe.Pointer(c))); r == 0 {
		return fmt.Errorf("reading thread context: %w", errno)
	}
	ip, ok := relocate(uintptr(c.Rip), target, trampoline)
	if !ok {
		return nil
	}
	c.Rip = uint64(ip)
	if r, _, errno := procSetThreadContext.Call(uintptr(thread), uintptr(unsafe.Pointer(c))); r == 0 {
		return fmt.Errorf("moving thread out of 0x%X: %w", target, errno)
	}
	return nil
}

func (p *Patcher) Restore(target uintptr) error {
	pt := p.patches[target]
	if pt == nil || !pt.redirected {
		return nil
	}
	if err := write(target, pt.original[:]); err != nil {
		return err
	}
	pt.redirected = false
	return nil
}

func code(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// write copies b to the code at addr, making the range temporarily writable.
func write(addr uintptr, b []byte) error {
	var old uint32
	size := uintptr(len(b))
	if err := syswindows.VirtualProtect(addr, size, syswindows.PAGE_EXECUTE_READWRITE, &old); err != nil {
		return fmt.Errorf("unprotecting 0x%X: %w", addr, err)
	}
	copy(code(addr, len(b)), b)
	if err := syswindows.VirtualProtect(addr, size, old, &old); err != nil {
		return fmt.Errorf("protecting 0x%X: %w", addr, err)
	}
	procFlushInstructionCache.Call(uintptr(syswindows.CurrentProcess()), addr, size)
	return nil
}
