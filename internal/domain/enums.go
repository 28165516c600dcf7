package domain

import (
	"fmt"
	"strings"
)

// FlowMode biases plan generation toward output, rest, or sustainability.
type FlowMode string

const (
	ModeSprint   FlowMode = "sprint"
	ModeRecovery FlowMode = "recovery"
	ModeBalance  FlowMode = "balance"
)

// DefaultMode is the mode selected when nothing else was chosen.
const DefaultMode = ModeBalance

// ModeInfo describes a flow mode for presentation.
type ModeInfo struct {
	Mode  FlowMode
	Label string
	Desc  string
}

// Modes lists the flow modes in display order.
var Modes = []ModeInfo{
	{Mode: ModeSprint, Label: "Sprint", Desc: "Focus on maximum output and high-impact tasks."},
	{Mode: ModeRecovery, Label: "Recovery", Desc: "Prioritize mental healing and low-energy maintenance."},
	{Mode: ModeBalance, Label: "Balance", Desc: "Sustainable flow for long-term consistency."},
}

// Info returns the display metadata for m. Unknown modes get a bare label.
func (m FlowMode) Info() ModeInfo {
	for _, info := range Modes {
		if info.Mode == m {
			return info
		}
	}
	return ModeInfo{Mode: m, Label: string(m)}
}

func (m FlowMode) Valid() bool {
	switch m {
	case ModeSprint, ModeRecovery, ModeBalance:
		return true
	}
	return false
}

// Next cycles through the modes in display order.
func (m FlowMode) Next() FlowMode {
	for i, info := range Modes {
		if info.Mode == m {
			return Modes[(i+1)%len(Modes)].Mode
		}
	}
	return DefaultMode
}

// ParseFlowMode accepts a mode name in any case.
func ParseFlowMode(s string) (FlowMode, error) {
	m := FlowMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown flow mode %q (want sprint, recovery or balance)", s)
	}
	return m, nil
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Tab is the active presentation view.
type Tab string

const (
	TabDump     Tab = "dump"
	TabPlan     Tab = "plan"
	TabInsights Tab = "insights"
)

// Tabs lists the views in display order.
var Tabs = []Tab{TabDump, TabPlan, TabInsights}

func (t Tab) Valid() bool {
	switch t {
	case TabDump, TabPlan, TabInsights:
		return true
	}
	return false
}

// Next cycles through the views in display order.
func (t Tab) Next() Tab {
	for i, tab := range Tabs {
		if tab == t {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return TabDump
}

// SyncStatus reports whether a draft write is outstanding.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncPending SyncStatus = "pending"
)
