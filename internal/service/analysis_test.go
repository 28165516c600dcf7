package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/testutil"
)

func newPlanner() *stubPlanner {
	a := testutil.NewTestAnalysis("Reply to emails", "Write report")
	a.GroundingSources = []domain.GroundingSource{{Title: "Deep work", URI: "https://example.com/deep"}}
	return &stubPlanner{
		analysis: &a,
		tasks: []domain.Task{
			testutil.NewTestTask("Reply to emails", testutil.WithCompleted(true)),
			testutil.NewTestTask("Write report", testutil.WithDuration(50), testutil.WithPriority(domain.PriorityHigh)),
		},
	}
}

func TestRunAnalysis_BlankTextIsNoop(t *testing.T) {
	planner := newPlanner()
	h := newCoreHarness(t, planner)

	plan, err := h.core.RunAnalysis(context.Background(), "  \n\t", domain.ModeSprint)
	require.NoError(t, err)
	assert.Nil(t, plan)

	a, p := planner.calls()
	assert.Zero(t, a)
	assert.Zero(t, p)
	assert.Empty(t, h.store.Calls())
	assert.False(t, h.core.State().Loading)
}

func TestRunAnalysis_StoresPlanHistoryAndClearsDraft(t *testing.T) {
	planner := newPlanner()
	h := newCoreHarness(t, planner)
	ctx := context.Background()
	require.NoError(t, h.backing.Write(ctx, h.session.Paths.Draft(), "emails, report"))

	plan, err := h.core.RunAnalysis(ctx, "emails, report", domain.ModeSprint)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, "emails, report", planner.lastContent)
	assert.Equal(t, domain.ModeSprint, planner.lastMode)

	assert.Equal(t, testutil.TestDay, plan.Date)
	assert.Equal(t, domain.ModeSprint, plan.Mode)
	assert.Equal(t, "scattered", plan.Mood)
	assert.Equal(t, "Batch the small things.", plan.Advice)
	require.Len(t, plan.Tasks, 2)
	for _, task := range plan.Tasks {
		assert.False(t, task.Completed, task.Title)
	}

	stored := h.storedPlan()
	require.NotNil(t, stored)
	assert.Equal(t, *plan, *stored)

	draft, ok := h.storedDraft()
	assert.True(t, ok)
	assert.Equal(t, "", draft)

	appends := h.store.CallsTo(testutil.OpAppend, h.session.Paths.History())
	require.Len(t, appends, 1)
	item, ok := appends[0].Value.(domain.HistoryItem)
	require.True(t, ok)
	assert.Equal(t, "emails, report", item.Content)
	assert.Equal(t, testutil.TestDay, item.Date)
	assert.Equal(t, domain.ModeSprint, item.Mode)
	assert.Equal(t, fmt.Sprintf("%013d", testutil.TestNow.UnixMilli()), item.ID)

	st := h.core.State()
	assert.Equal(t, domain.TabPlan, st.Tab)
	assert.Equal(t, domain.ModeSprint, st.Mode)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
	require.NotEmpty(t, st.History)
	assert.Equal(t, item.ID, st.History[0].ID)

	h.eventually(func(s State) bool { return len(s.History) == 1 }, "history snapshot settles")
}

func TestRunAnalysis_SecondRunGetsLargerID(t *testing.T) {
	h := newCoreHarness(t, newPlanner())
	ctx := context.Background()

	_, err := h.core.RunAnalysis(ctx, "first", domain.ModeBalance)
	require.NoError(t, err)
	_, err = h.core.RunAnalysis(ctx, "second", domain.ModeBalance)
	require.NoError(t, err)

	h.eventually(func(s State) bool { return len(s.History) == 2 }, "two history items")
	st := h.core.State()
	assert.Equal(t, "second", st.History[0].Content)
	assert.Equal(t, "first", st.History[1].Content)
}

func TestRunAnalysis_InvalidModeFallsBack(t *testing.T) {
	planner := newPlanner()
	h := newCoreHarness(t, planner)

	plan, err := h.core.RunAnalysis(context.Background(), "stuff", "turbo")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMode, plan.Mode)
	assert.Equal(t, domain.DefaultMode, planner.lastMode)
}

func TestRunAnalysis_StageFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *stubPlanner)
	}{
		{"analyze fails", func(p *stubPlanner) {
			p.analyzeErr = fmt.Errorf("%w: model timed out", domain.ErrService)
		}},
		{"plan fails", func(p *stubPlanner) {
			p.planErr = fmt.Errorf("%w: invalid output", domain.ErrService)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := newPlanner()
			tt.setup(planner)
			h := newCoreHarness(t, planner)
			ctx := context.Background()
			require.NoError(t, h.backing.Write(ctx, h.session.Paths.Draft(), "keep me"))

			plan, err := h.core.RunAnalysis(ctx, "keep me", domain.ModeBalance)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrService)
			assert.Nil(t, plan)

			assert.Empty(t, h.store.Calls())
			draft, ok := h.storedDraft()
			assert.True(t, ok)
			assert.Equal(t, "keep me", draft)
			assert.Nil(t, h.storedPlan())

			st := h.core.State()
			assert.False(t, st.Loading)
			assert.NotEmpty(t, st.LastError)
			assert.Equal(t, domain.TabDump, st.Tab)
		})
	}
}

func TestRunAnalysis_NoPlannerConfigured(t *testing.T) {
	h := newCoreHarness(t, nil)

	_, err := h.core.RunAnalysis(context.Background(), "anything", domain.ModeBalance)
	assert.ErrorIs(t, err, domain.ErrService)
	assert.False(t, h.core.State().Loading)
}

func TestRunAnalysis_LoadingBlocksSecondRun(t *testing.T) {
	planner := &blockingPlanner{stubPlanner: newPlanner(), gate: make(chan struct{})}
	backing := testutil.NewTestStore(t)
	session, err := NewSession(testutil.TestDeviceID, backing)
	require.NoError(t, err)
	core := NewPlanCore(session, planner, WithClock(func() time.Time { return testutil.TestNow }))

	ctx, cancel := context.WithCancel(context.Background())
	go core.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-core.Done()
	})
	<-core.Loaded()

	first := make(chan error, 1)
	go func() {
		_, err := core.RunAnalysis(context.Background(), "first", domain.ModeBalance)
		first <- err
	}()
	require.Eventually(t, func() bool { return core.State().Loading }, waitFor, pollInt)

	_, err = core.RunAnalysis(context.Background(), "second", domain.ModeBalance)
	assert.ErrorIs(t, err, ErrAnalysisRunning)

	close(planner.gate)
	require.NoError(t, <-first)
	assert.False(t, core.State().Loading)
}

func TestRunAnalysis_StoreFailureAfterPlan(t *testing.T) {
	h := newCoreHarness(t, newPlanner())
	h.store.FailOp(testutil.OpAppend, errors.New("quota exceeded"))

	plan, err := h.core.RunAnalysis(context.Background(), "stuff", domain.ModeBalance)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	require.NotNil(t, plan)

	assert.NotNil(t, h.storedPlan())
	h.eventually(func(s State) bool { return s.LastError != "" }, "error recorded")
	assert.Equal(t, domain.TabPlan, h.core.State().Tab)
}

func TestRunAnalysis_ClearsDraftThroughSync(t *testing.T) {
	backing := testutil.NewTestStore(t)
	rec := testutil.NewRecordingStore(backing)
	session, err := NewSession(testutil.TestDeviceID, rec)
	require.NoError(t, err)

	draft := NewDraftSync(session, WithQuietPeriod(time.Hour))
	core := NewPlanCore(session, newPlanner(),
		WithClock(func() time.Time { return testutil.TestNow }),
		WithDraftSync(draft),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go core.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-core.Done()
	})
	<-core.Loaded()

	draft.Update("emails, report")
	assert.Equal(t, domain.SyncPending, draft.Status())

	_, err = core.RunAnalysis(context.Background(), draft.Text(), domain.ModeBalance)
	require.NoError(t, err)

	assert.Equal(t, domain.SyncIdle, draft.Status())
	assert.Equal(t, "", draft.Text())
	writes := rec.CallsTo(testutil.OpWrite, session.Paths.Draft())
	require.Len(t, writes, 1)
	assert.Equal(t, "", writes[0].Value)
}

type blockingPlanner struct {
	*stubPlanner
	gate chan struct{}
}

func (p *blockingPlanner) Analyze(ctx context.Context, content string, mode domain.FlowMode) (*domain.Analysis, error) {
	<-p.gate
	return p.stubPlanner.Analyze(ctx, content, mode)
}
