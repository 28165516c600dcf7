package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/service"
)

// Dump view.

func (m tuiModel) handleDumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Analyze) {
		if m.analyzing || strings.TrimSpace(m.editor.Value()) == "" {
			return m, nil
		}
		m.analyzing = true
		m.notice = ""
		return m, tea.Batch(m.runAnalysis(), m.spin.Tick)
	}
	if key.Matches(msg, m.keys.Back) {
		if m.editor.Focused() {
			m.editor.Blur()
		} else {
			m.editor.Focus()
		}
		return m, nil
	}
	if !m.editor.Focused() && key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m.updateEditor(msg)
}

// updateEditor forwards msg to the editor and hands any text change to the
// draft sync.
func (m tuiModel) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.analyzing {
		return m, nil
	}
	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.draft.Update(after)
		m.sync = m.draft.Status()
	}
	return m, cmd
}

func (m tuiModel) dumpView() string {
	var b strings.Builder
	b.WriteString(formatter.Header("Brain dump") + "  " + formatter.Dim(m.state.Mode.Info().Desc) + "\n\n")
	b.WriteString(m.editor.View())
	if m.analyzing {
		b.WriteString("\n\n" + m.spin.View() + " Untangling your thoughts...")
	}
	return b.String()
}

// Plan view.

func (m tuiModel) handlePlanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	n := taskCount(m.state)
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Toggle):
		if n == 0 {
			return m, nil
		}
		idx := m.cursor
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.ToggleCompletion(ctx, idx) })
	case key.Matches(msg, k.Add):
		m.adding = true
		m.addInput.Reset()
		return m, m.addInput.Focus()
	case key.Matches(msg, k.Break):
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.AddBreak(ctx) })
	case key.Matches(msg, k.Focus):
		if n == 0 {
			return m, nil
		}
		idx := m.cursor
		minutes := m.state.Plan.Tasks[idx].Duration
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.StartFocus(ctx, idx, minutes) })
	case key.Matches(msg, k.Pause):
		if !m.state.Focus.Active() {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.PauseResumeFocus(ctx) })
	case key.Matches(msg, k.Finish):
		if !m.state.Focus.Active() {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.FinishFocus(ctx) })
	case key.Matches(msg, k.FullScreen):
		if !m.state.Focus.Active() {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.EnterFullScreen(ctx) })
	}
	return m, nil
}

func (m tuiModel) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.adding = false
		m.addInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		title := strings.TrimSpace(m.addInput.Value())
		m.adding = false
		m.addInput.Blur()
		if title == "" {
			return m, nil
		}
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.AddTask(ctx, title) })
	}
	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m tuiModel) planView() string {
	plan := m.state.Plan
	if plan == nil {
		return formatter.Dim("No plan for today yet. Write a brain dump and press ctrl+r.") +
			"\n\n" + m.addLine()
	}

	var b strings.Builder
	b.WriteString(formatter.Bold(plan.Date) + "  " + formatter.ModeBadge(plan.Mode))
	if plan.Mood != "" {
		b.WriteString("  " + formatter.Dim("mood: "+plan.Mood))
	}
	b.WriteString("\n" + formatter.RenderProgress(plan.Progress(), 30) + "\n\n")

	focus := m.state.Focus.Index()
	for i, t := range plan.Tasks {
		pointer := "  "
		if i == m.cursor {
			pointer = formatter.StylePurple.Render("▸ ")
		}
		title := t.Title
		switch {
		case t.Completed:
			title = formatter.StyleDim.Strikethrough(true).Render(title)
		case t.IsBreak:
			title = formatter.StyleGreen.Render(title)
		}
		if i == focus {
			title += " " + formatter.StylePurple.Render("◉")
		}
		fmt.Fprintf(&b, "%s%s %s  %s %s\n", pointer, formatter.CheckMark(t.Completed), title,
			formatter.Dim(formatter.FormatMinutes(t.Duration)), formatter.PriorityTag(t.Priority))
	}
	if len(plan.Tasks) == 0 {
		b.WriteString(formatter.Dim("No tasks.") + "\n")
	}
	if line := m.addLine(); line != "" {
		b.WriteString("\n" + line + "\n")
	}
	if plan.Advice != "" {
		b.WriteString("\n" + formatter.Header("Coach") + "\n" + plan.Advice + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) addLine() string {
	if !m.adding {
		return ""
	}
	return m.addInput.View()
}

// Insights view.

func (m tuiModel) handleInsightsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.insights, cmd = m.insights.Update(msg)
	return m, cmd
}

// Focus views.

func (m tuiModel) handleFocusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case msg.String() == " " || msg.String() == "p":
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.PauseResumeFocus(ctx) })
	case msg.String() == "enter" || key.Matches(msg, k.Finish):
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.FinishFocus(ctx) })
	case key.Matches(msg, k.Back):
		if m.focusOnly {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.ExitFullScreen(ctx) })
	case msg.String() == "q" && m.focusOnly:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m tuiModel) focusView() string {
	f := m.state.Focus
	title := "Session ended"
	if t, ok := m.state.FocusTask(); ok {
		title = t.Title
	}

	clock := lipgloss.NewStyle().Bold(true).Foreground(formatter.ColorPurple).Render(formatter.FormatCountdown(f.RemainingSeconds))
	status := formatter.StyleGreen.Render("running")
	if f.Active() && !f.Running {
		status = formatter.StyleYellow.Render("paused")
	}
	hint := formatter.Dim("space pause/resume · enter finish · esc leave")

	body := lipgloss.JoinVertical(lipgloss.Center,
		formatter.Header("Focus"),
		"",
		formatter.Bold(title),
		"",
		clock,
		status,
		"",
		hint,
	)
	if m.width == 0 || m.height == 0 {
		return formatter.RenderBox("", body)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, formatter.RenderBox("", body))
}

// focusBar is the compact timer shown under the regular views while a
// session runs.
func (m tuiModel) focusBar() string {
	f := m.state.Focus
	if !f.Active() {
		return ""
	}
	title := "(task removed)"
	if t, ok := m.state.FocusTask(); ok {
		title = formatter.Truncate(t.Title, 40)
	}
	icon := formatter.StyleGreen.Render("▶")
	if !f.Running {
		icon = formatter.StyleYellow.Render("❚❚")
	}
	return fmt.Sprintf("%s %s %s  %s", icon, formatter.StylePurple.Render("Focus"), title,
		formatter.Bold(formatter.FormatCountdown(f.RemainingSeconds)))
}
