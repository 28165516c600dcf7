package domain

// Analysis is the first-stage output of the planning pipeline. It is not
// persisted on its own, only inside a HistoryItem.
type Analysis struct {
	Mood             string            `json:"mood"`
	EnergyLevel      float64           `json:"energyLevel"`
	SuggestedTasks   []string          `json:"suggestedTasks"`
	CoachingAdvice   string            `json:"coachingAdvice"`
	BurnoutRisk      bool              `json:"burnoutRisk"`
	FocusInsight     string            `json:"focusInsight"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// Energy bounds for analyses and tasks.
const (
	MinEnergyLevel = 0
	MaxEnergyLevel = 10
	MinTaskEnergy  = 1
	MaxTaskEnergy  = 10
)
