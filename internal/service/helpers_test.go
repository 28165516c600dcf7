package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/store"
	"github.com/alexanderramin/mindflow/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	pollInt = 2 * time.Millisecond
)

type stubPlanner struct {
	mu           sync.Mutex
	analysis     *domain.Analysis
	tasks        []domain.Task
	analyzeErr   error
	planErr      error
	analyzeCalls int
	planCalls    int
	lastContent  string
	lastMode     domain.FlowMode
}

func (p *stubPlanner) Analyze(_ context.Context, content string, mode domain.FlowMode) (*domain.Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyzeCalls++
	p.lastContent = content
	p.lastMode = mode
	if p.analyzeErr != nil {
		return nil, p.analyzeErr
	}
	a := *p.analysis
	return &a, nil
}

func (p *stubPlanner) GeneratePlan(_ context.Context, _ *domain.Analysis, _ domain.FlowMode) ([]domain.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.planCalls++
	if p.planErr != nil {
		return nil, p.planErr
	}
	return append([]domain.Task(nil), p.tasks...), nil
}

func (p *stubPlanner) calls() (analyze, plan int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analyzeCalls, p.planCalls
}

type coreHarness struct {
	t       *testing.T
	core    *PlanCore
	store   *testutil.RecordingStore
	backing *store.SQLiteStore
	session *Session
}

func newCoreHarness(t *testing.T, planner *stubPlanner, opts ...CoreOption) *coreHarness {
	t.Helper()
	backing := testutil.NewTestStore(t)
	rec := testutil.NewRecordingStore(backing)
	session, err := NewSession(testutil.TestDeviceID, rec)
	require.NoError(t, err)

	base := []CoreOption{
		WithClock(func() time.Time { return testutil.TestNow }),
		WithTickInterval(time.Millisecond),
	}
	var svc *PlanCore
	if planner != nil {
		svc = NewPlanCore(session, planner, append(base, opts...)...)
	} else {
		svc = NewPlanCore(session, nil, append(base, opts...)...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-svc.Done()
	})

	select {
	case <-svc.Loaded():
	case <-time.After(waitFor):
		t.Fatal("core did not load")
	}
	return &coreHarness{t: t, core: svc, store: rec, backing: backing, session: session}
}

func (h *coreHarness) planPath() string {
	return h.session.Paths.Plan(testutil.TestDay)
}

// seedPlan writes plan behind the core's back and waits until it is applied.
func (h *coreHarness) seedPlan(plan domain.DailyPlan) {
	h.t.Helper()
	require.NoError(h.t, h.backing.Write(context.Background(), h.planPath(), plan))
	h.eventually(func(s State) bool {
		return s.Plan != nil && len(s.Plan.Tasks) == len(plan.Tasks) && s.Plan.Mood == plan.Mood
	}, "seeded plan applied")
}

func (h *coreHarness) eventually(cond func(State) bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return cond(h.core.State()) }, waitFor, pollInt, msg)
}

func (h *coreHarness) storedPlan() *domain.DailyPlan {
	h.t.Helper()
	snap, err := h.backing.ReadOnce(context.Background(), h.planPath())
	require.NoError(h.t, err)
	if !snap.Exists() {
		return nil
	}
	var plan domain.DailyPlan
	require.NoError(h.t, snap.Decode(&plan))
	return &plan
}

func (h *coreHarness) storedDraft() (string, bool) {
	h.t.Helper()
	snap, err := h.backing.ReadOnce(context.Background(), h.session.Paths.Draft())
	require.NoError(h.t, err)
	if !snap.Exists() {
		return "", false
	}
	var text string
	require.NoError(h.t, snap.Decode(&text))
	return text, true
}

func boolPtr(b bool) *bool { return &b }
