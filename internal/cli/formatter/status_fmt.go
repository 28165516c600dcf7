package formatter

import (
	"fmt"
	"strings"
)

// StatusInfo is everything the status command reports.
type StatusInfo struct {
	Device        string
	Backend       string
	StoreLocation string
	ConfigFile    string
	Provider      string
	Model         string
	LLMConfigured bool
	LLMReachable  bool
	Day           string
	Progress      int
	Tasks         int
	Completed     int
	HistoryItems  int
	DraftChars    int
}

const statusProgressBarWidth = 10

// FormatStatus renders the status overview.
func FormatStatus(s StatusInfo) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-9s", label)), value)
	}

	line("device", Bold(s.Device))
	store := s.Backend
	if s.StoreLocation != "" {
		store += " " + Dim(s.StoreLocation)
	}
	line("store", store)
	if s.ConfigFile != "" {
		line("config", s.ConfigFile)
	}
	line("model", llmStatus(s))

	b.WriteString("\n")
	if s.Tasks == 0 {
		line(s.Day, Dim("no plan"))
	} else {
		line(s.Day, fmt.Sprintf("%s %s", RenderProgress(s.Progress, statusProgressBarWidth),
			Dim(fmt.Sprintf("%d/%d tasks", s.Completed, s.Tasks))))
	}
	line("insights", fmt.Sprintf("%d", s.HistoryItems))
	if s.DraftChars > 0 {
		line("draft", fmt.Sprintf("%d chars pending analysis", s.DraftChars))
	}
	return RenderBox("Status", strings.TrimRight(b.String(), "\n"))
}

func llmStatus(s StatusInfo) string {
	label := fmt.Sprintf("%s/%s", s.Provider, s.Model)
	switch {
	case !s.LLMConfigured:
		return label + " " + StyleYellow.Render("● not configured")
	case s.LLMReachable:
		return label + " " + StyleGreen.Render("● reachable")
	default:
		return label + " " + StyleRed.Render("● unreachable")
	}
}
