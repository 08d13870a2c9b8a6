// Package storetest provides store.Store wrappers for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/jrsteele09/bff-auth/store"
)

const (
	OpGet         = "Get"
	OpPut         = "Put"
	OpPutIfAbsent = "PutIfAbsent"
	OpUpdate      = "Update"
	OpDelete      = "Delete"
)

// Call is one recorded store operation.
type Call struct {
	Op  string
	Key store.Key
}

var _ store.Store = (*Recorder)(nil)

// Recorder wraps a store, records every call and can inject failures per operation.
type Recorder struct {
	inner store.Store

	mu    sync.Mutex
	calls []Call
	fail  map[string]func(store.Key) error
}

// NewRecorder wraps inner. A nil inner defaults to a fresh in-memory store.
func NewRecorder(inner store.Store) *Recorder {
	if inner == nil {
		inner = store.NewMemory()
	}
	return &Recorder{
		inner: inner,
		fail:  make(map[string]func(store.Key) error),
	}
}

// FailOn makes op return the error produced by fn whenever fn returns non-nil.
func (r *Recorder) FailOn(op string, fn func(store.Key) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = fn
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns the number of calls for op, or every call when op is empty.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op == "" {
		return len(r.calls)
	}
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(op string, key store.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, Key: key})
	if fn, ok := r.fail[op]; ok {
		return fn(key)
	}
	return nil
}

func (r *Recorder) Get(ctx context.Context, key store.Key, out any) error {
	if err := r.record(OpGet, key); err != nil {
		return err
	}
	return r.inner.Get(ctx, key, out)
}

func (r *Recorder) Put(ctx context.Context, key store.Key, item any) error {
	if err := r.record(OpPut, key); err != nil {
		return err
	}
	return r.inner.Put(ctx, key, item)
}

func (r *Recorder) PutIfAbsent(ctx context.Context, key store.Key, item any) error {
	if err := r.record(OpPutIfAbsent, key); err != nil {
		return err
	}
	return r.inner.PutIfAbsent(ctx, key, item)
}

func (r *Recorder) Update(ctx context.Context, key store.Key, fields map[string]any) error {
	if err := r.record(OpUpdate, key); err != nil {
		return err
	}
	return r.inner.Update(ctx, key, fields)
}

func (r *Recorder) Delete(ctx context.Context, key store.Key) error {
	if err := r.record(OpDelete, key); err != nil {
		return err
	}
	return r.inner.Delete(ctx, key)
}
