package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFirebase serves the Realtime Database REST surface from an in-memory
// SQLiteStore, including the event stream.
type fakeFirebase struct {
	t       *testing.T
	backing *SQLiteStore

	mu       sync.Mutex
	requests []string
	failNext int
}

func newFakeFirebase(t *testing.T) (*fakeFirebase, *httptest.Server) {
	t.Helper()
	backing, err := OpenMemoryStore()
	require.NoError(t, err)
	f := &fakeFirebase{t: t, backing: backing}
	srv := httptest.NewServer(f)
	t.Cleanup(func() {
		srv.Close()
		backing.Close()
	})
	return f, srv
}

func (f *fakeFirebase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+path)
	fail := f.failNext > 0
	if fail {
		f.failNext--
	}
	f.mu.Unlock()
	if fail {
		http.Error(w, `{"error":"Permission denied"}`, http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	if r.Method == http.MethodGet && r.Header.Get("Accept") == "text/event-stream" {
		f.stream(w, r, path)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var value any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	switch r.Method {
	case http.MethodPut:
		if err := f.backing.Write(ctx, path, value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write(body)
	case http.MethodPatch:
		fields, _ := value.(map[string]any)
		if err := f.backing.Patch(ctx, path, fields); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write(body)
	case http.MethodPost:
		key, err := f.backing.Append(ctx, path, value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"name":%q}`, key)
	case http.MethodGet:
		snap, err := f.backing.ReadOnce(ctx, path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !snap.Exists() {
			w.Write([]byte("null"))
			return
		}
		w.Write(snap.Value)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeFirebase) stream(w http.ResponseWriter, r *http.Request, path string) {
	flusher := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	changes := make(chan json.RawMessage, 16)
	unsubscribe, err := f.backing.Subscribe(path, func(snap Snapshot, err error) {
		if err != nil {
			return
		}
		select {
		case changes <- snap.Value:
		default:
		}
	})
	if !assert.NoError(f.t, err) {
		return
	}
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case v := <-changes:
			if v == nil {
				v = json.RawMessage("null")
			}
			fmt.Fprintf(w, "event: put\ndata: {\"path\":\"/\",\"data\":%s}\n\n", v)
			fmt.Fprint(w, "event: keep-alive\ndata: null\n\n")
			flusher.Flush()
		}
	}
}

func (f *fakeFirebase) seen(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func newTestFirebaseStore(t *testing.T, url string) *FirebaseStore {
	t.Helper()
	s, err := NewFirebaseStore(FirebaseConfig{URL: url, ReconnectDelay: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewFirebaseStore_Validation(t *testing.T) {
	_, err := NewFirebaseStore(FirebaseConfig{})
	assert.Error(t, err)
	_, err = NewFirebaseStore(FirebaseConfig{URL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestFirebaseStore_Endpoint(t *testing.T) {
	s, err := NewFirebaseStore(FirebaseConfig{URL: "https://demo.firebaseio.com/", AuthToken: "t k"})
	require.NoError(t, err)
	assert.Equal(t, "https://demo.firebaseio.com/users/d1/draft.json?auth=t+k", s.endpoint("users/d1/draft"))
	assert.Equal(t, "https://demo.firebaseio.com/.json?auth=t+k", s.endpoint(""))
}

func TestFirebaseStore_WritePatchRead(t *testing.T) {
	fake, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)
	ctx := context.Background()

	plan := testPlan{Date: "2025-06-15", Tasks: []testTask{{Title: "A", Duration: 5}, {Title: "B", Duration: 5}}}
	require.NoError(t, s.Write(ctx, "users/d1/dailyPlans/2025-06-15", plan))
	require.NoError(t, s.Patch(ctx, "users/d1/dailyPlans/2025-06-15", map[string]any{TaskCompleted(0): true}))

	snap, err := s.ReadOnce(ctx, "users/d1/dailyPlans/2025-06-15")
	require.NoError(t, err)
	var got testPlan
	require.NoError(t, snap.Decode(&got))
	assert.True(t, got.Tasks[0].Completed)
	assert.False(t, got.Tasks[1].Completed)

	assert.True(t, fake.seen("PUT users/d1/dailyPlans/2025-06-15"))
	assert.True(t, fake.seen("PATCH users/d1/dailyPlans/2025-06-15"))
}

func TestFirebaseStore_AppendReturnsServerKey(t *testing.T) {
	_, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)
	ctx := context.Background()

	key, err := s.Append(ctx, "users/d1/history", map[string]any{"content": "dump"})
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	snap, err := s.ReadOnce(ctx, "users/d1/history/"+key+"/content")
	require.NoError(t, err)
	assert.JSONEq(t, `"dump"`, string(snap.Value))
}

func TestFirebaseStore_ReadMissing(t *testing.T) {
	_, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)

	snap, err := s.ReadOnce(context.Background(), "users/none")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestFirebaseStore_ServerErrorSurfaces(t *testing.T) {
	fake, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)
	fake.failNext = 1

	err := s.Write(context.Background(), "users/d1/draft", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFirebaseStore_SubscribeStreamsChanges(t *testing.T) {
	_, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "users/d1/draft", "first"))

	var (
		mu   sync.Mutex
		last string
	)
	unsubscribe, err := s.Subscribe("users/d1/draft", func(snap Snapshot, err error) {
		if err != nil || !snap.Exists() {
			return
		}
		var v string
		if snap.Decode(&v) == nil {
			mu.Lock()
			last = v
			mu.Unlock()
		}
	})
	require.NoError(t, err)
	defer unsubscribe()

	current := func() string {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	assert.Eventually(t, func() bool { return current() == "first" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Write(ctx, "users/d1/draft", "second"))
	assert.Eventually(t, func() bool { return current() == "second" }, 2*time.Second, 10*time.Millisecond)
}

func TestFirebaseStore_StreamFailureReportsAndRetries(t *testing.T) {
	fake, srv := newFakeFirebase(t)
	s := newTestFirebaseStore(t, srv.URL)
	fake.failNext = 1

	var (
		mu     sync.Mutex
		errs   int
		values int
	)
	unsubscribe, err := s.Subscribe("users/d1/draft", func(_ Snapshot, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs++
			return
		}
		values++
	})
	require.NoError(t, err)
	defer unsubscribe()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return errs >= 1 && values >= 1
	}, 2*time.Second, 10*time.Millisecond)
}
