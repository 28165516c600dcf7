package domain

import "strings"

// Quick-add defaults.
const (
	QuickTaskDurationMin = 25
	QuickTaskEnergy      = 5

	BreakTitle       = "Neural Reset Session"
	BreakDurationMin = 10
	BreakEnergy      = 1
)

// Task is one entry of a daily plan. Tasks have no identity of their own;
// they are addressed by position inside the plan.
type Task struct {
	Title          string   `json:"title"`
	Duration       int      `json:"duration"`
	IsBreak        bool     `json:"isBreak"`
	EnergyRequired int      `json:"energyRequired"`
	Completed      bool     `json:"completed"`
	Priority       Priority `json:"priority"`
}

// NewQuickTask builds the task appended by quick-add.
// Returns false when the title is blank.
func NewQuickTask(title string) (Task, bool) {
	if strings.TrimSpace(title) == "" {
		return Task{}, false
	}
	return Task{
		Title:          title,
		Duration:       QuickTaskDurationMin,
		IsBreak:        false,
		EnergyRequired: QuickTaskEnergy,
		Completed:      false,
		Priority:       PriorityMedium,
	}, true
}

// NewBreakTask builds the fixed reset task appended by quick-break.
func NewBreakTask() Task {
	return Task{
		Title:          BreakTitle,
		Duration:       BreakDurationMin,
		IsBreak:        true,
		EnergyRequired: BreakEnergy,
		Completed:      false,
		Priority:       PriorityLow,
	}
}
