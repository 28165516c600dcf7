package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/store"
)

const (
	// DefaultQuietPeriod is how long the editor must be idle before the
	// draft is written.
	DefaultQuietPeriod = 1500 * time.Millisecond
	draftWriteTimeout  = 10 * time.Second
)

// DraftSync mirrors the brain-dump editor to the store. Each change
// restarts a quiet-period timer; only the text present when it fires is
// written. Writes are fire-and-forget and never retried.
type DraftSync struct {
	client store.Client
	path   string
	quiet  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	text     string
	status   domain.SyncStatus
	stopped  bool
	onStatus func(domain.SyncStatus)
}

// DraftOption customises a DraftSync.
type DraftOption func(*DraftSync)

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) DraftOption {
	return func(s *DraftSync) {
		if d > 0 {
			s.quiet = d
		}
	}
}

func WithDraftLogger(logger *slog.Logger) DraftOption {
	return func(s *DraftSync) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatusListener registers fn to be called on every status change. fn
// runs with the sync's lock held and must not call back into it.
func WithStatusListener(fn func(domain.SyncStatus)) DraftOption {
	return func(s *DraftSync) { s.onStatus = fn }
}

// NewDraftSync creates a sync for the session's draft path.
func NewDraftSync(session *Session, opts ...DraftOption) *DraftSync {
	s := &DraftSync{
		client: session.Store,
		path:   session.Paths.Draft(),
		quiet:  DefaultQuietPeriod,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		status: domain.SyncIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed reads the stored draft once. An absent or empty draft yields "".
func (s *DraftSync) Seed(ctx context.Context) (string, error) {
	snap, err := s.client.ReadOnce(ctx, s.path)
	if err != nil {
		return "", fmt.Errorf("%w: reading draft: %w", domain.ErrStore, err)
	}
	if !snap.Exists() {
		return "", nil
	}
	var text string
	if err := snap.Decode(&text); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	return text, nil
}

// Update records an editor change. Blank text cancels any pending write.
func (s *DraftSync) Update(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked()
	s.text = text
	if strings.TrimSpace(text) == "" {
		s.setStatusLocked(domain.SyncIdle)
		return
	}
	s.setStatusLocked(domain.SyncPending)
	gen := s.gen
	s.timer = time.AfterFunc(s.quiet, func() {
		ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
		defer cancel()
		_ = s.write(ctx, gen, text)
	})
}

// Flush writes a pending change immediately.
func (s *DraftSync) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.status != domain.SyncPending {
		s.mu.Unlock()
		return nil
	}
	s.cancelLocked()
	gen, text := s.gen, s.text
	s.mu.Unlock()
	return s.write(ctx, gen, text)
}

// Clear cancels any pending write and stores the empty draft.
func (s *DraftSync) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cancelLocked()
	s.text = ""
	gen := s.gen
	s.mu.Unlock()
	return s.write(ctx, gen, "")
}

// Stop cancels any pending write. Later updates are ignored.
func (s *DraftSync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
	s.setStatusLocked(domain.SyncIdle)
}

func (s *DraftSync) Status() domain.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Text is the latest editor content seen by the sync.
func (s *DraftSync) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// cancelLocked stops the pending timer and invalidates writes already in
// flight, so their completion cannot reset a newer status.
func (s *DraftSync) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *DraftSync) write(ctx context.Context, gen uint64, text string) error {
	err := s.client.Write(ctx, s.path, text)
	if err != nil {
		s.logger.Warn("draft.write.failed", "error", err)
		err = fmt.Errorf("%w: writing draft: %w", domain.ErrStore, err)
	} else {
		s.logger.Debug("draft.write.ok", "chars", len(text))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.setStatusLocked(domain.SyncIdle)
	}
	return err
}

func (s *DraftSync) setStatusLocked(status domain.SyncStatus) {
	if s.status == status {
		return
	}
	s.status = status
	if s.onStatus != nil {
		s.onStatus(status)
	}
}
