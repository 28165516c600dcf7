package intelligence

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/llm"
)

// analysisResponse mirrors the analyze-stage JSON. Pointer fields tell a
// missing field apart from its zero value.
type analysisResponse struct {
	Mood           *string   `json:"mood"`
	EnergyLevel    *float64  `json:"energyLevel"`
	SuggestedTasks *[]string `json:"suggestedTasks"`
	CoachingAdvice *string   `json:"coachingAdvice"`
	BurnoutRisk    *bool     `json:"burnoutRisk"`
	FocusInsight   *string   `json:"focusInsight"`
}

func validateAnalysis(r analysisResponse) error {
	if err := errors.Join(
		llm.Required("mood", r.Mood),
		llm.Required("energyLevel", r.EnergyLevel),
		llm.Required("suggestedTasks", r.SuggestedTasks),
		llm.Required("coachingAdvice", r.CoachingAdvice),
		llm.Required("burnoutRisk", r.BurnoutRisk),
		llm.Required("focusInsight", r.FocusInsight),
	); err != nil {
		return err
	}
	if e := *r.EnergyLevel; e < domain.MinEnergyLevel || e > domain.MaxEnergyLevel {
		return fmt.Errorf("energyLevel %v outside [%d,%d]", e, domain.MinEnergyLevel, domain.MaxEnergyLevel)
	}
	return nil
}

func (r analysisResponse) toDomain(sources []llm.Source) *domain.Analysis {
	a := &domain.Analysis{
		Mood:           *r.Mood,
		EnergyLevel:    *r.EnergyLevel,
		SuggestedTasks: append([]string{}, (*r.SuggestedTasks)...),
		CoachingAdvice: *r.CoachingAdvice,
		BurnoutRisk:    domain.BoolOr(r.BurnoutRisk, false),
		FocusInsight:   *r.FocusInsight,
	}
	for _, s := range sources {
		if s.URI == "" {
			continue
		}
		a.GroundingSources = append(a.GroundingSources, domain.GroundingSource{
			Title: domain.FirstNonEmpty(s.Title, defaultSourceTitle),
			URI:   s.URI,
		})
	}
	return a
}

const defaultSourceTitle = "Research Source"

type taskResponse struct {
	Title          *string  `json:"title"`
	Duration       *float64 `json:"duration"`
	IsBreak        *bool    `json:"isBreak"`
	EnergyRequired *float64 `json:"energyRequired"`
	Priority       *string  `json:"priority"`
}

type planResponse struct {
	Tasks *[]taskResponse `json:"tasks"`
}

func validatePlan(r planResponse) error {
	if err := llm.Required("tasks", r.Tasks); err != nil {
		return err
	}
	for i, t := range *r.Tasks {
		if err := errors.Join(
			llm.Required("title", t.Title),
			llm.Required("duration", t.Duration),
			llm.Required("isBreak", t.IsBreak),
			llm.Required("energyRequired", t.EnergyRequired),
			llm.Required("priority", t.Priority),
		); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		if *t.Duration <= 0 {
			return fmt.Errorf("task %d: duration must be positive, got %v", i, *t.Duration)
		}
		if e := *t.EnergyRequired; e < domain.MinTaskEnergy || e > domain.MaxTaskEnergy {
			return fmt.Errorf("task %d: energyRequired %v outside [%d,%d]", i, e, domain.MinTaskEnergy, domain.MaxTaskEnergy)
		}
		if !domain.Priority(*t.Priority).Valid() {
			return fmt.Errorf("task %d: unknown priority %q", i, *t.Priority)
		}
	}
	return nil
}

// toDomain converts validated tasks. Every task starts incomplete.
func (r planResponse) toDomain() []domain.Task {
	tasks := make([]domain.Task, 0, len(*r.Tasks))
	for _, t := range *r.Tasks {
		tasks = append(tasks, domain.Task{
			Title:          *t.Title,
			Duration:       roundPositive(*t.Duration),
			IsBreak:        *t.IsBreak,
			EnergyRequired: int(*t.EnergyRequired + 0.5),
			Completed:      false,
			Priority:       domain.Priority(*t.Priority),
		})
	}
	return tasks
}

// roundPositive rounds minutes to the nearest whole number, never below 1.
func roundPositive(v float64) int {
	n := int(v + 0.5)
	if n < 1 {
		return 1
	}
	return n
}
