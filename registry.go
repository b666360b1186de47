package kmt

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Context is the state tracked for a submission context.
//
// The pointers refer to driver-managed memory. They are recorded as reported
// by the kernel and only ever read through a Memory.
type Context struct {
	NodeOrdinal       uint32
	CommandBuffer     Pointer
	AllocationList    Pointer
	PatchLocationList Pointer
}

// Registry maps context handles to the most recently committed state of
// each context.
//
// Records are never evicted: a context destroyed by the application keeps
// its entry until the registry is closed, and a reused handle overwrites it
// on the next successful creation.
type Registry struct {
	mutex    sync.RWMutex
	contexts map[Handle]Context
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{contexts: make(map[Handle]Context)}
}

// Snapshot returns a copy of the record for h.
//
// The lock is only held for the copy, callers can take as long as they need
// formatting the buffers without blocking writers.
func (r *Registry) Snapshot(h Handle) (Context, bool) {
	r.mutex.RLock()
	c, ok := r.contexts[h]
	r.mutex.RUnlock()
	return c, ok
}

// Insert records c for h, replacing any previous record.
func (r *Registry) Insert(h Handle, c Context) {
	r.mutex.Lock()
	if r.contexts == nil {
		r.contexts = make(map[Handle]Context)
	}
	r.contexts[h] = c
	r.mutex.Unlock()
}

// UpdateBuffers replaces the buffer pointers of the record for h, leaving its
// node ordinal untouched. It returns false and does nothing if h is unknown,
// which happens for contexts created before the hooks were installed.
func (r *Registry) UpdateBuffers(h Handle, commandBuffer, allocationList, patchLocationList Pointer) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	c, ok := r.contexts[h]
	if ok {
		c.CommandBuffer = commandBuffer
		c.AllocationList = allocationList
		c.PatchLocationList = patchLocationList
		r.contexts[h] = c
	}
	return ok
}

// Len returns the number of tracked contexts.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.contexts)
}

// Handles returns the tracked context handles in ascending order.
func (r *Registry) Handles() []Handle {
	r.mutex.RLock()
	handles := maps.Keys(r.contexts)
	r.mutex.RUnlock()
	slices.Sort(handles)
	return handles
}

// Close drops every record. The registry remains usable afterwards.
func (r *Registry) Close() error {
	r.mutex.Lock()
	maps.Clear(r.contexts)
	r.mutex.Unlock()
	return nil
}
