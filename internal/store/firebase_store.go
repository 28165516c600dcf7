package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultFirebaseTimeout   = 15 * time.Second
	defaultReconnectDelay    = 3 * time.Second
	maxEventLineBytes        = 4 << 20
	firebaseEventPut         = "put"
	firebaseEventPatch       = "patch"
	firebaseEventKeepAlive   = "keep-alive"
	firebaseEventCancel      = "cancel"
	firebaseEventAuthRevoked = "auth_revoked"
)

// FirebaseConfig configures a FirebaseStore.
type FirebaseConfig struct {
	// URL is the database root, e.g. https://project-default-rtdb.firebaseio.com.
	URL string
	// AuthToken is sent as the auth query parameter when set.
	AuthToken      string
	Timeout        time.Duration
	ReconnectDelay time.Duration
	Logger         *slog.Logger
}

// FirebaseStore implements Client over the Firebase Realtime Database REST
// API. Subscriptions use its server-sent event stream and re-read the
// subscribed path after each put or patch event.
type FirebaseStore struct {
	base      *url.URL
	auth      string
	http      *http.Client
	stream    *http.Client
	reconnect time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	nextID  int
	closed  bool
}

// NewFirebaseStore validates the database URL and returns a store. No
// request is made until the first operation.
func NewFirebaseStore(cfg FirebaseConfig) (*FirebaseStore, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("firebase: database URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("firebase: parsing database URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("firebase: unsupported URL scheme %q", base.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFirebaseTimeout
	}
	reconnect := cfg.ReconnectDelay
	if reconnect <= 0 {
		reconnect = defaultReconnectDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FirebaseStore{
		base:      base,
		auth:      cfg.AuthToken,
		http:      &http.Client{Timeout: timeout},
		stream:    &http.Client{},
		reconnect: reconnect,
		logger:    logger,
		cancels:   map[int]context.CancelFunc{},
	}, nil
}

func (s *FirebaseStore) Write(ctx context.Context, path string, value any) error {
	path, err := Clean(path)
	if err != nil {
		return err
	}
	if _, err := s.do(ctx, http.MethodPut, path, value); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (s *FirebaseStore) Patch(ctx context.Context, path string, fields map[string]any) error {
	path, err := Clean(path)
	if err != nil {
		return err
	}
	body := make(map[string]any, len(fields))
	for key, value := range fields {
		rel, err := Clean(key)
		if err != nil {
			return err
		}
		if rel == "" {
			return fmt.Errorf("%w: empty patch key", ErrInvalidPath)
		}
		body[rel] = value
	}
	if _, err := s.do(ctx, http.MethodPatch, path, body); err != nil {
		return fmt.Errorf("patching %s: %w", path, err)
	}
	return nil
}

func (s *FirebaseStore) Append(ctx context.Context, collection string, value any) (string, error) {
	collection, err := Clean(collection)
	if err != nil {
		return "", err
	}
	raw, err := s.do(ctx, http.MethodPost, collection, value)
	if err != nil {
		return "", fmt.Errorf("appending to %s: %w", collection, err)
	}
	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Name == "" {
		return "", fmt.Errorf("appending to %s: unexpected response %q", collection, truncate(raw))
	}
	return resp.Name, nil
}

func (s *FirebaseStore) ReadOnce(ctx context.Context, path string) (Snapshot, error) {
	path, err := Clean(path)
	if err != nil {
		return Snapshot{}, err
	}
	raw, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	snap := Snapshot{Path: path}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && string(trimmed) != "null" {
		snap.Value = json.RawMessage(trimmed)
	}
	return snap, nil
}

func (s *FirebaseStore) Subscribe(path string, onChange func(Snapshot, error)) (func(), error) {
	path, err := Clean(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := s.nextID
	s.nextID++
	s.cancels[id] = cancel
	s.mu.Unlock()

	go s.listenLoop(ctx, path, onChange)

	return func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
		cancel()
	}, nil
}

func (s *FirebaseStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.http.CloseIdleConnections()
	return nil
}

// listenLoop keeps an event stream open for path until ctx ends,
// reconnecting after failures.
func (s *FirebaseStore) listenLoop(ctx context.Context, path string, onChange func(Snapshot, error)) {
	for {
		err := s.listen(ctx, path, onChange)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Warn("store.stream.disconnected", "path", path, "error", err)
			onChange(Snapshot{Path: path}, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnect):
		}
	}
}

func (s *FirebaseStore) listen(ctx context.Context, path string, onChange func(Snapshot, error)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.stream.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opening stream: status %d: %s", resp.StatusCode, truncate(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineBytes)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := s.dispatch(ctx, path, event, onChange); err != nil {
				return err
			}
			event = ""
		case strings.HasPrefix(line, "event:"):
			// data lines carry only the delta; dispatch re-reads the full value.
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return io.ErrUnexpectedEOF
}

func (s *FirebaseStore) dispatch(ctx context.Context, path, event string, onChange func(Snapshot, error)) error {
	switch event {
	case firebaseEventPut, firebaseEventPatch:
		snap, err := s.ReadOnce(ctx, path)
		if ctx.Err() != nil {
			return nil
		}
		onChange(snap, err)
	case firebaseEventCancel, firebaseEventAuthRevoked:
		return fmt.Errorf("stream closed by server: %s", event)
	case "", firebaseEventKeepAlive:
	default:
		s.logger.Debug("store.stream.unknown_event", "event", event)
	}
	return nil
}

func (s *FirebaseStore) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw))
	}
	return raw, nil
}

func (s *FirebaseStore) endpoint(path string) string {
	u := *s.base
	segs := []string{strings.TrimRight(u.Path, "/")}
	if path == "" {
		segs = append(segs, "")
	} else {
		for _, seg := range strings.Split(path, "/") {
			segs = append(segs, url.PathEscape(seg))
		}
	}
	u.RawPath = ""
	u.Path = ""
	u.RawQuery = ""
	raw := u.String() + strings.Join(segs, "/") + ".json"
	if s.auth != "" {
		raw += "?auth=" + url.QueryEscape(s.auth)
	}
	return raw
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
