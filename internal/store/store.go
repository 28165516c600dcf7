// Package store is the key-path document store every core operation reads
// from and writes to. Paths address nodes of a JSON tree; writes replace
// subtrees, patches replace several children at once, and subscriptions
// push the full snapshot of a path whenever it may have changed.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidPath indicates an empty segment or a forbidden character in a
// key path.
var ErrInvalidPath = errors.New("invalid store path")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Snapshot is the value of a path at one point in time.
type Snapshot struct {
	Path  string
	Value json.RawMessage // nil when the path holds nothing
}

// Exists reports whether the path held a value.
func (s Snapshot) Exists() bool {
	return len(s.Value) > 0 && string(s.Value) != "null"
}

// Decode unmarshals the snapshot into dst.
func (s Snapshot) Decode(dst any) error {
	if !s.Exists() {
		return fmt.Errorf("decoding %s: no value", s.Path)
	}
	if err := json.Unmarshal(s.Value, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", s.Path, err)
	}
	return nil
}

// Client is the store surface the core depends on.
type Client interface {
	// Write replaces the value at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error

	// Patch replaces each child named in fields, leaving siblings untouched.
	// Keys may be multi-segment paths relative to path.
	Patch(ctx context.Context, path string, fields map[string]any) error

	// Append stores value under a new time-ordered key below collection
	// and returns the key.
	Append(ctx context.Context, collection string, value any) (string, error)

	// ReadOnce returns the current value at path.
	ReadOnce(ctx context.Context, path string) (Snapshot, error)

	// Subscribe calls onChange with the value at path once right away and
	// again after every change that may affect it. Calls for one
	// subscription are sequential; intermediate values may be skipped.
	Subscribe(path string, onChange func(Snapshot, error)) (unsubscribe func(), err error)

	// Close releases the connection and ends all subscriptions.
	Close() error
}

// Paths builds the device-scoped key paths.
type Paths struct {
	root string
}

// NewPaths scopes every path under users/{deviceID}.
func NewPaths(deviceID string) Paths {
	return Paths{root: Join("users", deviceID)}
}

func (p Paths) Root() string { return p.root }

// Plan is the path of the plan for a calendar-day key.
func (p Paths) Plan(day string) string { return Join(p.root, "dailyPlans", day) }

func (p Paths) History() string { return Join(p.root, "history") }

func (p Paths) Draft() string { return Join(p.root, "draft") }

// TaskCompleted is the completed flag of a task, relative to its plan.
func TaskCompleted(index int) string {
	return Join("tasks", strconv.Itoa(index), "completed")
}

var (
	_ Client = (*SQLiteStore)(nil)
	_ Client = (*FirebaseStore)(nil)
)
