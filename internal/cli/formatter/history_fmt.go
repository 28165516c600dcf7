package formatter

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexanderramin/mindflow/internal/domain"
)

const dumpPreviewWidth = 40

// FormatHistory renders the insights log as a table, newest first.
func FormatHistory(items []domain.HistoryItem) string {
	if len(items) == 0 {
		return Dim("No insights yet.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Date,
			ModeStyle(it.Mode).Render(it.Mode.Info().Label),
			it.Analysis.Mood,
			fmt.Sprintf("%.0f/10", it.Analysis.EnergyLevel),
			burnoutFlag(it.Analysis.BurnoutRisk),
			Truncate(oneLine(it.Content), dumpPreviewWidth),
		})
	}
	return RenderTable([]string{"DATE", "MODE", "MOOD", "ENERGY", "BURNOUT", "DUMP"}, rows)
}

// FormatAnalysis renders one analysis in full.
func FormatAnalysis(a domain.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Dim("mood:  "), Bold(a.Mood))
	fmt.Fprintf(&b, "%s %s %s\n", Dim("energy:"),
		EnergyDots(int(math.Round(a.EnergyLevel))), Dim(fmt.Sprintf("%.1f", a.EnergyLevel)))
	if a.BurnoutRisk {
		b.WriteString(StyleRed.Render("⚠ burnout risk detected") + "\n")
	}
	if a.FocusInsight != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", Header("Focus"), a.FocusInsight)
	}
	if a.CoachingAdvice != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", Header("Coach"), a.CoachingAdvice)
	}
	if len(a.SuggestedTasks) > 0 {
		fmt.Fprintf(&b, "\n%s\n", Header("Suggested"))
		for _, t := range a.SuggestedTasks {
			fmt.Fprintf(&b, "• %s\n", t)
		}
	}
	if len(a.GroundingSources) > 0 {
		b.WriteString("\n" + FormatSources(a.GroundingSources))
	}
	return b.String()
}

func burnoutFlag(risk bool) string {
	if risk {
		return StyleRed.Render("yes")
	}
	return Dim("no")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
