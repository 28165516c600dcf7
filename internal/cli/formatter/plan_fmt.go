package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/mindflow/internal/domain"
)

const planProgressBarWidth = 20

// FormatPlan renders today's plan. focusIndex marks the task bound to the
// focus session, -1 for none.
func FormatPlan(plan *domain.DailyPlan, focusIndex int) string {
	if plan == nil {
		return RenderBox("Today", Dim("No plan for today yet. Dump your thoughts with `mindflow dump`."))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(plan.Date), ModeBadge(plan.Mode))
	if plan.Mood != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("mood:"), plan.Mood)
	}
	b.WriteString(RenderProgress(plan.Progress(), planProgressBarWidth) + "\n\n")

	if len(plan.Tasks) == 0 {
		b.WriteString(Dim("No tasks.") + "\n")
	} else {
		b.WriteString(RenderTable(
			[]string{"#", "", "TASK", "TIME", "ENERGY", "PRIORITY"},
			TaskRows(plan.Tasks, focusIndex),
		))
	}

	totals := plan.Totals()
	fmt.Fprintf(&b, "\n%s\n", Dim(fmt.Sprintf("%d/%d done · %s of %s",
		totals.Completed, totals.Tasks,
		FormatMinutes(totals.CompletedMin), FormatMinutes(totals.PlannedMin))))

	if plan.Advice != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", Header("Coach"), plan.Advice)
	}
	if len(plan.GroundingSources) > 0 {
		b.WriteString("\n" + FormatSources(plan.GroundingSources))
	}
	return RenderBox("Today", strings.TrimRight(b.String(), "\n"))
}

// TaskRows builds the plan table rows, numbering tasks from 1.
func TaskRows(tasks []domain.Task, focusIndex int) [][]string {
	rows := make([][]string, 0, len(tasks))
	for i, t := range tasks {
		title := t.Title
		switch {
		case t.Completed:
			title = Dim(title)
		case t.IsBreak:
			title = StyleGreen.Render(title)
		}
		if i == focusIndex {
			title += " " + StylePurple.Render("◉ focus")
		}
		rows = append(rows, []string{
			Dim(strconv.Itoa(i + 1)),
			CheckMark(t.Completed),
			title,
			FormatMinutes(t.Duration),
			fmt.Sprintf("%d/10", t.EnergyRequired),
			PriorityTag(t.Priority),
		})
	}
	return rows
}

// CheckMark renders a completion box.
func CheckMark(done bool) string {
	if done {
		return StyleGreen.Render("[✔]")
	}
	return Dim("[ ]")
}

// FormatSources lists grounding citations.
func FormatSources(sources []domain.GroundingSource) string {
	var b strings.Builder
	b.WriteString(Header("Sources") + "\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "• %s %s\n", s.Title, Dim(s.URI))
	}
	return b.String()
}
