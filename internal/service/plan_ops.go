package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/store"
)

// AddTask appends a quick task with the default duration and energy. A
// blank title is silently declined. Without a plan for today a minimal
// plan holding just this task is created.
func (c *PlanCore) AddTask(ctx context.Context, title string) (err error) {
	title = strings.TrimSpace(title)
	task, ok := domain.NewQuickTask(title)
	if !ok {
		return nil
	}
	startedAt := time.Now()
	defer func() { c.observe(ctx, "add-task", startedAt, map[string]any{"title": title}, err) }()
	return c.appendTask(ctx, task)
}

// AddBreak appends the fixed reset session.
func (c *PlanCore) AddBreak(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() { c.observe(ctx, "add-break", startedAt, nil, err) }()
	return c.appendTask(ctx, domain.NewBreakTask())
}

func (c *PlanCore) appendTask(ctx context.Context, task domain.Task) error {
	var fields map[string]any
	if err := c.apply(ctx, func(st *State) error {
		tasks := st.Plan.WithTask(task)
		fields = map[string]any{"tasks": append([]domain.Task(nil), tasks...)}
		if st.Plan == nil {
			st.Plan = &domain.DailyPlan{Date: c.day, Mode: st.Mode}
			fields["date"] = c.day
			fields["mode"] = st.Mode
		}
		st.Plan.Tasks = tasks
		return nil
	}); err != nil {
		return err
	}
	return c.storeErr("append task", c.session.Store.Patch(ctx, c.planPath(), fields))
}

// ToggleCompletion flips the completed flag of the task at index.
func (c *PlanCore) ToggleCompletion(ctx context.Context, index int) error {
	return c.SetCompletion(ctx, index, nil)
}

// SetCompletion forces the completed flag of the task at index, or flips it
// when forced is nil. Only that one field is written remotely.
func (c *PlanCore) SetCompletion(ctx context.Context, index int, forced *bool) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"index": index}
	defer func() { c.observe(ctx, "set-completion", startedAt, fields, err) }()

	var value bool
	if err := c.apply(ctx, func(st *State) error {
		v, err := st.Plan.CompletionAfterToggle(index, forced)
		if err != nil {
			return err
		}
		st.Plan.Tasks[index].Completed = v
		value = v
		return nil
	}); err != nil {
		return fmt.Errorf("task %d: %w", index+1, err)
	}
	fields["completed"] = value
	return c.writeCompletion(ctx, index, value)
}

func (c *PlanCore) writeCompletion(ctx context.Context, index int, value bool) error {
	err := c.session.Store.Patch(ctx, c.planPath(), map[string]any{
		store.TaskCompleted(index): value,
	})
	return c.storeErr("set completion", err)
}

// SetMode selects the flow mode used by the next analysis.
func (c *PlanCore) SetMode(ctx context.Context, mode domain.FlowMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown flow mode %q", mode)
	}
	return c.apply(ctx, func(st *State) error {
		st.Mode = mode
		return nil
	})
}

// SetTab selects the active view.
func (c *PlanCore) SetTab(ctx context.Context, tab domain.Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown tab %q", tab)
	}
	return c.apply(ctx, func(st *State) error {
		st.Tab = tab
		return nil
	})
}
