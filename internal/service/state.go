package service

import "github.com/alexanderramin/mindflow/internal/domain"

// State is a consistent view of the core for presentation. Values returned
// by PlanCore are copies and may be kept or modified freely.
type State struct {
	Day     string
	Plan    *domain.DailyPlan
	History []domain.HistoryItem
	Focus   domain.FocusSession
	Tab     domain.Tab
	Mode    domain.FlowMode
	Loading bool
	// LastError describes the most recent failed store or planning call.
	// It is cleared by the next successful remote snapshot.
	LastError string
}

func (s State) clone() State {
	c := s
	c.Plan = s.Plan.Clone()
	c.History = append([]domain.HistoryItem(nil), s.History...)
	if s.Focus.TaskIndex != nil {
		idx := *s.Focus.TaskIndex
		c.Focus.TaskIndex = &idx
	}
	return c
}

// Progress is today's completion percentage.
func (s State) Progress() int {
	return s.Plan.Progress()
}

// FocusTask returns the task bound to the focus session, if it still
// exists in the plan.
func (s State) FocusTask() (domain.Task, bool) {
	idx := s.Focus.Index()
	if !s.Plan.HasTask(idx) {
		return domain.Task{}, false
	}
	return s.Plan.Tasks[idx], true
}
