package domain

import (
	"math"
	"time"
)

// DayKeyLayout is the calendar-day key format used for plan paths.
const DayKeyLayout = "2006-01-02"

// DayKey returns the local calendar-day key for t.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// GroundingSource is an external citation backing the coaching advice.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// DailyPlan is today's ordered task list plus the coaching context it was
// generated with. At most one exists per device and day.
type DailyPlan struct {
	Date             string            `json:"date"`
	Tasks            []Task            `json:"tasks"`
	Mood             string            `json:"mood"`
	Advice           string            `json:"advice"`
	Mode             FlowMode          `json:"mode"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// NewDailyPlan builds the plan produced by an analysis run. Every task is
// reset to incomplete regardless of what the planner returned.
func NewDailyPlan(day string, tasks []Task, analysis Analysis, mode FlowMode) DailyPlan {
	fresh := make([]Task, len(tasks))
	for i, t := range tasks {
		t.Completed = false
		fresh[i] = t
	}
	return DailyPlan{
		Date:             day,
		Tasks:            fresh,
		Mood:             analysis.Mood,
		Advice:           analysis.CoachingAdvice,
		Mode:             mode,
		GroundingSources: analysis.GroundingSources,
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (p *DailyPlan) Clone() *DailyPlan {
	if p == nil {
		return nil
	}
	c := *p
	c.Tasks = append([]Task(nil), p.Tasks...)
	c.GroundingSources = append([]GroundingSource(nil), p.GroundingSources...)
	return &c
}

// HasTask reports whether index addresses a task in the plan.
func (p *DailyPlan) HasTask(index int) bool {
	return p != nil && index >= 0 && index < len(p.Tasks)
}

// WithTask returns the task sequence with t appended. The receiver is not
// modified; a nil plan yields a single-task sequence.
func (p *DailyPlan) WithTask(t Task) []Task {
	var tasks []Task
	if p != nil {
		tasks = make([]Task, 0, len(p.Tasks)+1)
		tasks = append(tasks, p.Tasks...)
	}
	return append(tasks, t)
}

// CompletionAfterToggle returns the completed flag task index would have
// after a toggle. A nil forced value flips the current flag.
func (p *DailyPlan) CompletionAfterToggle(index int, forced *bool) (bool, error) {
	if p == nil {
		return false, ErrNoPlan
	}
	if !p.HasTask(index) {
		return false, ErrTaskIndex
	}
	return BoolOr(forced, !p.Tasks[index].Completed), nil
}

// Progress returns the rounded percentage of completed tasks, 0 for an
// empty plan.
func (p *DailyPlan) Progress() int {
	if p == nil || len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range p.Tasks {
		if t.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(p.Tasks)) * 100))
}

// PlanTotals summarises a plan for display.
type PlanTotals struct {
	Tasks        int
	Completed    int
	Breaks       int
	PlannedMin   int
	CompletedMin int
}

func (p *DailyPlan) Totals() PlanTotals {
	var t PlanTotals
	if p == nil {
		return t
	}
	for _, task := range p.Tasks {
		t.Tasks++
		t.PlannedMin += task.Duration
		if task.IsBreak {
			t.Breaks++
		}
		if task.Completed {
			t.Completed++
			t.CompletedMin += task.Duration
		}
	}
	return t
}
