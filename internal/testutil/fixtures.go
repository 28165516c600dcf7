package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
)

// TestNow is the fixed clock used by core tests: 2025-06-15 10:00 UTC.
var TestNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// TestDay is the day key of TestNow.
const TestDay = "2025-06-15"

// TestDeviceID is the device token used by core tests.
const TestDeviceID = "neural_test00000001"

// Task options
type TaskOption func(*domain.Task)

func WithCompleted(done bool) TaskOption {
	return func(t *domain.Task) { t.Completed = done }
}

func WithDuration(min int) TaskOption {
	return func(t *domain.Task) { t.Duration = min }
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) { t.Priority = p }
}

func AsBreak() TaskOption {
	return func(t *domain.Task) {
		t.IsBreak = true
		t.EnergyRequired = domain.BreakEnergy
	}
}

// NewTestTask creates an incomplete medium-priority task.
func NewTestTask(title string, opts ...TaskOption) domain.Task {
	t := domain.Task{
		Title:          title,
		Duration:       30,
		EnergyRequired: 5,
		Priority:       domain.PriorityMedium,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewTestPlan creates a plan for TestDay holding tasks.
func NewTestPlan(tasks ...domain.Task) domain.DailyPlan {
	return domain.DailyPlan{
		Date:   TestDay,
		Tasks:  tasks,
		Mood:   "steady",
		Advice: "One thing at a time.",
		Mode:   domain.ModeBalance,
	}
}

// NewTestAnalysis creates a valid analysis suggesting the given titles.
func NewTestAnalysis(titles ...string) domain.Analysis {
	return domain.Analysis{
		Mood:           "scattered",
		EnergyLevel:    6,
		SuggestedTasks: titles,
		CoachingAdvice: "Batch the small things.",
		BurnoutRisk:    false,
		FocusInsight:   "Guard the morning.",
	}
}

// NewTestHistoryItem creates a history item with the given id.
func NewTestHistoryItem(id string) domain.HistoryItem {
	return domain.HistoryItem{
		ID:       id,
		Date:     TestDay,
		Content:  fmt.Sprintf("dump %s", id),
		Analysis: NewTestAnalysis("Inbox"),
		Mode:     domain.ModeBalance,
	}
}
