package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/mindflow/internal/device"
	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/service"
	"github.com/alexanderramin/mindflow/internal/testutil"
)

type stubPlanner struct {
	analysis domain.Analysis
	tasks    []domain.Task
	err      error
}

func (p *stubPlanner) Analyze(_ context.Context, _ string, _ domain.FlowMode) (*domain.Analysis, error) {
	if p.err != nil {
		return nil, p.err
	}
	a := p.analysis
	return &a, nil
}

func (p *stubPlanner) GeneratePlan(_ context.Context, _ *domain.Analysis, _ domain.FlowMode) ([]domain.Task, error) {
	if p.err != nil {
		return nil, p.err
	}
	return append([]domain.Task(nil), p.tasks...), nil
}

func newStubPlanner() *stubPlanner {
	return &stubPlanner{
		analysis: testutil.NewTestAnalysis("Taxes", "Gym"),
		tasks: []domain.Task{
			testutil.NewTestTask("Taxes", testutil.WithPriority(domain.PriorityHigh), testutil.WithDuration(45)),
			testutil.NewTestTask("Gym"),
		},
	}
}

// testApp wires an App over an in-memory store with a fixed clock. The
// planner is left nil; tests that analyze set one.
func testApp(t *testing.T) *App {
	t.Helper()
	backing := testutil.NewTestStore(t)
	session, err := service.NewSession(testutil.TestDeviceID, backing)
	require.NoError(t, err)

	ident, err := device.Open(t.TempDir())
	require.NoError(t, err)

	return &App{
		Session:      session,
		Identity:     ident,
		Store:        StoreInfo{Backend: "memory"},
		DraftQuiet:   time.Hour,
		Now:          func() time.Time { return testutil.TestNow },
		TickInterval: time.Millisecond,
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func seedPlan(t *testing.T, app *App, plan domain.DailyPlan) {
	t.Helper()
	require.NoError(t, app.Session.Store.Write(context.Background(),
		app.Session.Paths.Plan(testutil.TestDay), plan))
}

func storedPlan(t *testing.T, app *App) *domain.DailyPlan {
	t.Helper()
	snap, err := app.Session.Store.ReadOnce(context.Background(), app.Session.Paths.Plan(testutil.TestDay))
	require.NoError(t, err)
	if !snap.Exists() {
		return nil
	}
	var plan domain.DailyPlan
	require.NoError(t, snap.Decode(&plan))
	return &plan
}

func storedDraft(t *testing.T, app *App) string {
	t.Helper()
	snap, err := app.Session.Store.ReadOnce(context.Background(), app.Session.Paths.Draft())
	require.NoError(t, err)
	var text string
	if snap.Exists() {
		require.NoError(t, snap.Decode(&text))
	}
	return text
}

var errBoom = errors.New("boom")
