package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/mindflow/internal/store"
)

// StoreOp names a store mutation.
type StoreOp string

const (
	OpWrite  StoreOp = "write"
	OpPatch  StoreOp = "patch"
	OpAppend StoreOp = "append"
)

// StoreCall is one recorded mutation.
type StoreCall struct {
	Op     StoreOp
	Path   string
	Value  any
	Fields map[string]any
}

// RecordingStore wraps a store.Client, recording every mutation and
// optionally failing them. Reads and subscriptions pass through.
type RecordingStore struct {
	store.Client

	mu    sync.Mutex
	calls []StoreCall
	fail  map[StoreOp]error
	gate  chan struct{}
}

// NewRecordingStore wraps inner.
func NewRecordingStore(inner store.Client) *RecordingStore {
	return &RecordingStore{Client: inner, fail: map[StoreOp]error{}}
}

// FailOp makes every later op fail with err. A nil err clears the failure.
func (r *RecordingStore) FailOp(op StoreOp, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

// Hold blocks later mutations until the returned release func is called.
func (r *RecordingStore) Hold() (release func()) {
	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.gate = nil
			r.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the recorded mutations in order.
func (r *RecordingStore) Calls() []StoreCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StoreCall(nil), r.calls...)
}

// CallsTo returns the recorded mutations of op on path.
func (r *RecordingStore) CallsTo(op StoreOp, path string) []StoreCall {
	var out []StoreCall
	for _, c := range r.Calls() {
		if c.Op == op && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (r *RecordingStore) record(ctx context.Context, call StoreCall) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	err := r.fail[call.Op]
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *RecordingStore) Write(ctx context.Context, path string, value any) error {
	if err := r.record(ctx, StoreCall{Op: OpWrite, Path: path, Value: value}); err != nil {
		return err
	}
	return r.Client.Write(ctx, path, value)
}

func (r *RecordingStore) Patch(ctx context.Context, path string, fields map[string]any) error {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	if err := r.record(ctx, StoreCall{Op: OpPatch, Path: path, Fields: copied}); err != nil {
		return err
	}
	return r.Client.Patch(ctx, path, fields)
}

func (r *RecordingStore) Append(ctx context.Context, collection string, value any) (string, error) {
	if err := r.record(ctx, StoreCall{Op: OpAppend, Path: collection, Value: value}); err != nil {
		return "", err
	}
	return r.Client.Append(ctx, collection, value)
}
