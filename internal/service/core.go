package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/intelligence"
	"github.com/alexanderramin/mindflow/internal/store"
)

// ErrCoreStopped is returned by operations issued after Run has returned.
var ErrCoreStopped = errors.New("plan core stopped")

const (
	defaultTickInterval = time.Second
	eventQueueSize      = 64
)

// PlanCore owns today's plan, the insights log, and the focus timer. Every
// state change, whether a local intent or a remote snapshot, is an event
// applied in arrival order by the single goroutine running Run. Store
// writes happen after the optimistic local update, outside the loop.
type PlanCore struct {
	session  *Session
	planner  intelligence.PlanningService
	draft    *DraftSync
	observer UseCaseObserver
	logger   *slog.Logger
	now      func() time.Time
	tick     time.Duration
	ids      domain.HistoryIDs
	day      string

	events chan func()
	done   chan struct{}

	snapMu   sync.RWMutex
	snapshot State
	updates  chan State

	loaded     chan struct{}
	loadedOnce sync.Once

	// Owned by the loop goroutine.
	state    State
	tickStop chan struct{}
}

// CoreOption customises a PlanCore.
type CoreOption func(*PlanCore)

// WithClock replaces time.Now. The day key is taken from it once, at
// construction.
func WithClock(now func() time.Time) CoreOption {
	return func(c *PlanCore) { c.now = now }
}

// WithTickInterval sets the focus countdown granularity.
func WithTickInterval(d time.Duration) CoreOption {
	return func(c *PlanCore) {
		if d > 0 {
			c.tick = d
		}
	}
}

func WithLogger(logger *slog.Logger) CoreOption {
	return func(c *PlanCore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(observer UseCaseObserver) CoreOption {
	return func(c *PlanCore) { c.observer = useCaseObserverOrNoop([]UseCaseObserver{observer}) }
}

// WithDraftSync lets a successful analysis clear the draft through the
// editor's sync, cancelling any pending write.
func WithDraftSync(d *DraftSync) CoreOption {
	return func(c *PlanCore) { c.draft = d }
}

// NewPlanCore creates a core for session. planner may be nil when no model
// is configured; RunAnalysis then fails with domain.ErrService.
func NewPlanCore(session *Session, planner intelligence.PlanningService, opts ...CoreOption) *PlanCore {
	c := &PlanCore{
		session:  session,
		planner:  planner,
		observer: NoopUseCaseObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		tick:     defaultTickInterval,
		events:   make(chan func(), eventQueueSize),
		done:     make(chan struct{}),
		updates:  make(chan State, 1),
		loaded:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.day = domain.DayKey(c.now())
	c.state = State{
		Day:  c.day,
		Tab:  domain.TabDump,
		Mode: domain.DefaultMode,
	}
	c.snapshot = c.state.clone()
	return c
}

// Day is the calendar-day key the core was started with.
func (c *PlanCore) Day() string { return c.day }

func (c *PlanCore) planPath() string { return c.session.Paths.Plan(c.day) }

// Run subscribes to today's plan and the insights log and applies events
// until ctx is cancelled.
func (c *PlanCore) Run(ctx context.Context) error {
	// Done closes before Loaded, so a caller woken by Loaded can tell a
	// failed start from a running core.
	defer c.markLoaded()
	defer close(c.done)

	unsubPlan, err := c.session.Store.Subscribe(c.planPath(), func(snap store.Snapshot, err error) {
		c.post(func() { c.applyPlanSnapshot(snap, err) })
	})
	if err != nil {
		return fmt.Errorf("%w: subscribing to plan: %w", domain.ErrStore, err)
	}
	defer unsubPlan()

	unsubHistory, err := c.session.Store.Subscribe(c.session.Paths.History(), func(snap store.Snapshot, err error) {
		c.post(func() { c.applyHistorySnapshot(snap, err) })
	})
	if err != nil {
		return fmt.Errorf("%w: subscribing to history: %w", domain.ErrStore, err)
	}
	defer unsubHistory()

	c.logger.Info("core.started", "device", c.session.DeviceID, "day", c.day)
	for {
		select {
		case <-ctx.Done():
			c.stopTicker()
			if c.draft != nil {
				c.draft.Stop()
			}
			c.logger.Info("core.stopped")
			return nil
		case ev := <-c.events:
			ev()
			c.publish()
		}
	}
}

// State returns a copy of the current state.
func (c *PlanCore) State() State {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snapshot.clone()
}

// Updates delivers a copy of the state after every applied event. Slow
// readers only see the latest state.
func (c *PlanCore) Updates() <-chan State { return c.updates }

// Loaded is closed once the first plan snapshot (or subscription error)
// has been applied.
func (c *PlanCore) Loaded() <-chan struct{} { return c.loaded }

// Done is closed when Run returns.
func (c *PlanCore) Done() <-chan struct{} { return c.done }

func (c *PlanCore) markLoaded() {
	c.loadedOnce.Do(func() { close(c.loaded) })
}

func (c *PlanCore) publish() {
	snap := c.state.clone()
	c.snapMu.Lock()
	c.snapshot = snap
	c.snapMu.Unlock()

	select {
	case <-c.updates:
	default:
	}
	c.updates <- snap.clone()
}

// post queues an event without waiting for it to be applied.
func (c *PlanCore) post(ev func()) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// apply runs fn on the loop and waits for its result.
func (c *PlanCore) apply(ctx context.Context, fn func(st *State) error) error {
	result := make(chan error, 1)
	ev := func() { result <- fn(&c.state) }
	select {
	case c.events <- ev:
	case <-c.done:
		return ErrCoreStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-c.done:
		return ErrCoreStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *PlanCore) applyPlanSnapshot(snap store.Snapshot, err error) {
	defer c.markLoaded()
	if err != nil {
		c.logger.Warn("core.plan_snapshot.failed", "error", err)
		c.state.LastError = fmt.Sprintf("%v: %v", domain.ErrStore, err)
		return
	}
	if !snap.Exists() {
		c.state.Plan = nil
		c.state.LastError = ""
		return
	}
	var plan domain.DailyPlan
	if err := snap.Decode(&plan); err != nil {
		c.logger.Warn("core.plan_snapshot.decode_failed", "error", err)
		c.state.LastError = fmt.Sprintf("%v: %v", domain.ErrStore, err)
		return
	}
	c.state.Plan = &plan
	c.state.LastError = ""
}

func (c *PlanCore) applyHistorySnapshot(snap store.Snapshot, err error) {
	if err != nil {
		c.logger.Warn("core.history_snapshot.failed", "error", err)
		c.state.LastError = fmt.Sprintf("%v: %v", domain.ErrStore, err)
		return
	}
	items, err := decodeHistory(snap)
	if err != nil {
		c.logger.Warn("core.history_snapshot.decode_failed", "error", err)
		return
	}
	c.state.History = items
}

// LoadHistory reads the insights log once, newest first.
func LoadHistory(ctx context.Context, session *Session) ([]domain.HistoryItem, error) {
	snap, err := session.Store.ReadOnce(ctx, session.Paths.History())
	if err != nil {
		return nil, fmt.Errorf("%w: reading history: %w", domain.ErrStore, err)
	}
	items, err := decodeHistory(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding history: %w", domain.ErrStore, err)
	}
	return items, nil
}

// decodeHistory turns the keyed history collection into a newest-first
// list. Items without an id of their own take their store key.
func decodeHistory(snap store.Snapshot) ([]domain.HistoryItem, error) {
	if !snap.Exists() {
		return nil, nil
	}
	var byKey map[string]json.RawMessage
	if err := snap.Decode(&byKey); err != nil {
		return nil, err
	}
	items := make([]domain.HistoryItem, 0, len(byKey))
	for key, raw := range byKey {
		var item domain.HistoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("history item %s: %w", key, err)
		}
		item.ID = domain.FirstNonEmpty(item.ID, key)
		items = append(items, item)
	}
	domain.SortHistory(items)
	return items, nil
}

// storeErr records a failed remote effect and wraps it as domain.ErrStore.
func (c *PlanCore) storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
	c.logger.Warn("core.store_write.failed", "op", op, "error", err)
	c.post(func() { c.state.LastError = wrapped.Error() })
	return wrapped
}

func (c *PlanCore) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	c.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
