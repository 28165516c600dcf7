package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
)

// ErrAnalysisRunning is returned when an analysis is requested while one is
// still in flight.
var ErrAnalysisRunning = errors.New("analysis already running")

// RunAnalysis turns a brain dump into today's plan. Blank text is a no-op
// and returns a nil plan. A failure in either planning stage writes
// nothing and keeps the draft. On success the plan is stored, the dump is
// appended to the insights log, the draft is cleared and the plan tab is
// selected; store failures after that point are returned as
// domain.ErrStore alongside the plan.
func (c *PlanCore) RunAnalysis(ctx context.Context, text string, mode domain.FlowMode) (plan *domain.DailyPlan, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !mode.Valid() {
		mode = domain.DefaultMode
	}

	startedAt := time.Now()
	fields := map[string]any{"mode": string(mode), "chars": len(text)}
	defer func() { c.observe(ctx, "run-analysis", startedAt, fields, err) }()

	if err := c.apply(ctx, func(st *State) error {
		if st.Loading {
			return ErrAnalysisRunning
		}
		st.Loading = true
		st.Mode = mode
		return nil
	}); err != nil {
		return nil, err
	}

	analysis, tasks, err := c.plan(ctx, text, mode)
	if err != nil {
		c.logger.Error("core.analysis.failed", "mode", mode, "error", err)
		_ = c.apply(context.Background(), func(st *State) error {
			st.Loading = false
			st.LastError = err.Error()
			return nil
		})
		return nil, err
	}
	fields["tasks"] = len(tasks)
	fields["sources"] = len(analysis.GroundingSources)

	newPlan := domain.NewDailyPlan(c.day, tasks, *analysis, mode)
	item := domain.HistoryItem{
		ID:       c.ids.Next(c.now()),
		Date:     c.day,
		Content:  text,
		Analysis: *analysis,
		Mode:     mode,
	}

	if err := c.apply(context.WithoutCancel(ctx), func(st *State) error {
		st.Plan = newPlan.Clone()
		st.History = append([]domain.HistoryItem{item}, st.History...)
		st.Tab = domain.TabPlan
		st.Loading = false
		st.LastError = ""
		return nil
	}); err != nil {
		return nil, err
	}

	client := c.session.Store
	if werr := client.Write(ctx, c.planPath(), newPlan); werr != nil {
		return &newPlan, c.storeErr("write plan", werr)
	}
	if _, werr := client.Append(ctx, c.session.Paths.History(), item); werr != nil {
		return &newPlan, c.storeErr("append history", werr)
	}
	if c.draft != nil {
		err = c.draft.Clear(ctx)
	} else {
		err = client.Write(ctx, c.session.Paths.Draft(), "")
	}
	if err != nil {
		return &newPlan, c.storeErr("clear draft", err)
	}

	c.logger.Info("core.analysis.done", "tasks", len(tasks), "history_id", item.ID)
	return &newPlan, nil
}

func (c *PlanCore) plan(ctx context.Context, text string, mode domain.FlowMode) (*domain.Analysis, []domain.Task, error) {
	if c.planner == nil {
		return nil, nil, fmt.Errorf("%w: no planning model configured", domain.ErrService)
	}
	analysis, err := c.planner.Analyze(ctx, text, mode)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := c.planner.GeneratePlan(ctx, analysis, mode)
	if err != nil {
		return nil, nil, err
	}
	return analysis, tasks, nil
}
