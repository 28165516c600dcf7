package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type testTask struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Completed bool   `json:"completed"`
}

type testPlan struct {
	Date  string     `json:"date"`
	Mood  string     `json:"mood"`
	Tasks []testTask `json:"tasks"`
}

func TestSQLiteStore_WriteAndReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plan := testPlan{
		Date: "2025-06-15",
		Mood: "steady",
		Tasks: []testTask{
			{Title: "Write report", Duration: 45},
			{Title: "Email", Duration: 10, Completed: true},
		},
	}
	require.NoError(t, s.Write(ctx, "users/d1/dailyPlans/2025-06-15", plan))

	snap, err := s.ReadOnce(ctx, "users/d1/dailyPlans/2025-06-15")
	require.NoError(t, err)
	require.True(t, snap.Exists())

	var got testPlan
	require.NoError(t, snap.Decode(&got))
	assert.Equal(t, plan, got)
}

func TestSQLiteStore_ReadMissingPath(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.ReadOnce(context.Background(), "users/nobody/draft")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
	assert.Error(t, snap.Decode(new(string)))
}

func TestSQLiteStore_ScalarValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "users/d1/draft", "half a thought"))
	snap, err := s.ReadOnce(ctx, "users/d1/draft")
	require.NoError(t, err)
	var draft string
	require.NoError(t, snap.Decode(&draft))
	assert.Equal(t, "half a thought", draft)

	// The empty string is a value, not a deletion.
	require.NoError(t, s.Write(ctx, "users/d1/draft", ""))
	snap, err = s.ReadOnce(ctx, "users/d1/draft")
	require.NoError(t, err)
	assert.True(t, snap.Exists())
	assert.JSONEq(t, `""`, string(snap.Value))
}

func TestSQLiteStore_WriteReplacesSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "p", map[string]any{"a": 1, "b": map[string]any{"c": 2}}))
	require.NoError(t, s.Write(ctx, "p", map[string]any{"d": true}))

	snap, err := s.ReadOnce(ctx, "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":true}`, string(snap.Value))
}

func TestSQLiteStore_WriteNilDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "p/a", 1))
	require.NoError(t, s.Write(ctx, "p/b", 2))
	require.NoError(t, s.Write(ctx, "p/a", nil))

	snap, err := s.ReadOnce(ctx, "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(snap.Value))
}

func TestSQLiteStore_WriteBelowScalarReplacesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "p", "scalar"))
	require.NoError(t, s.Write(ctx, "p/child", 3))

	snap, err := s.ReadOnce(ctx, "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"child":3}`, string(snap.Value))
}

func TestSQLiteStore_SiblingPrefixIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "users/d1", map[string]any{"draft": "one"}))
	require.NoError(t, s.Write(ctx, "users/d10", map[string]any{"draft": "ten"}))
	require.NoError(t, s.Write(ctx, "users/d1", nil))

	snap, err := s.ReadOnce(ctx, "users/d10/draft")
	require.NoError(t, err)
	assert.JSONEq(t, `"ten"`, string(snap.Value))
}

func TestSQLiteStore_PatchLeavesSiblingsUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plan := testPlan{
		Date:  "2025-06-15",
		Mood:  "steady",
		Tasks: []testTask{{Title: "A", Duration: 10}, {Title: "B", Duration: 20}},
	}
	require.NoError(t, s.Write(ctx, "plan", plan))
	require.NoError(t, s.Patch(ctx, "plan", map[string]any{
		TaskCompleted(1): true,
		"mood":           "bright",
	}))

	snap, err := s.ReadOnce(ctx, "plan")
	require.NoError(t, err)
	var got testPlan
	require.NoError(t, snap.Decode(&got))
	assert.Equal(t, "bright", got.Mood)
	assert.Equal(t, "2025-06-15", got.Date)
	assert.False(t, got.Tasks[0].Completed)
	assert.True(t, got.Tasks[1].Completed)
	assert.Equal(t, "B", got.Tasks[1].Title)
}

func TestSQLiteStore_PatchReplacesWholeChild(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "plan", testPlan{
		Date:  "d",
		Tasks: []testTask{{Title: "A"}, {Title: "B"}, {Title: "C"}},
	}))
	require.NoError(t, s.Patch(ctx, "plan", map[string]any{
		"tasks": []testTask{{Title: "Z"}},
	}))

	snap, err := s.ReadOnce(ctx, "plan")
	require.NoError(t, err)
	var got testPlan
	require.NoError(t, snap.Decode(&got))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "Z", got.Tasks[0].Title)
}

func TestSQLiteStore_PatchRejectsBadKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Patch(ctx, "plan", map[string]any{"": 1}), ErrInvalidPath)
	assert.ErrorIs(t, s.Patch(ctx, "plan", map[string]any{"a.b": 1}), ErrInvalidPath)
}

func TestSQLiteStore_AppendKeysAreOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, "users/d1/history", map[string]any{"content": "one"})
	require.NoError(t, err)
	second, err := s.Append(ctx, "users/d1/history", map[string]any{"content": "two"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)

	snap, err := s.ReadOnce(ctx, "users/d1/history")
	require.NoError(t, err)
	var items map[string]struct {
		Content string `json:"content"`
	}
	require.NoError(t, snap.Decode(&items))
	assert.Equal(t, "one", items[first].Content)
	assert.Equal(t, "two", items[second].Content)
}

func TestSQLiteStore_SubscribeDeliversInitialAndChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "users/d1/draft", "first"))

	var (
		mu   sync.Mutex
		seen []string
	)
	unsubscribe, err := s.Subscribe("users/d1/draft", func(snap Snapshot, err error) {
		assert.NoError(t, err)
		var v string
		if snap.Exists() {
			assert.NoError(t, snap.Decode(&v))
		}
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsubscribe()

	last := func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(seen) == 0 {
			return "<none>"
		}
		return seen[len(seen)-1]
	}

	assert.Eventually(t, func() bool { return last() == "first" }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Write(ctx, "users/d1/draft", "second"))
	assert.Eventually(t, func() bool { return last() == "second" }, time.Second, 5*time.Millisecond)

	// A write to an ancestor also reaches the subscriber.
	require.NoError(t, s.Write(ctx, "users/d1", map[string]any{"draft": "third"}))
	assert.Eventually(t, func() bool { return last() == "third" }, time.Second, 5*time.Millisecond)
}

func TestSQLiteStore_UnsubscribeStopsDelivery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		calls int
	)
	unsubscribe, err := s.Subscribe("p", func(Snapshot, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Write(ctx, "p", 1))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSQLiteStore_UnrelatedWritesDoNotNotify(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		calls int
	)
	unsubscribe, err := s.Subscribe("users/d1/draft", func(Snapshot, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsubscribe()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Write(ctx, "users/d2/draft", "other device"))
	require.NoError(t, s.Write(ctx, "users/d1/history/x", "sibling"))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSQLiteStore_SubscribeAfterClose(t *testing.T) {
	s, err := OpenMemoryStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Subscribe("p", func(Snapshot, error) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/nested/mindflow.db"
	ctx := context.Background()

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "users/d1/draft", "kept"))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.ReadOnce(ctx, "users/d1/draft")
	require.NoError(t, err)
	assert.JSONEq(t, `"kept"`, string(snap.Value))
}
