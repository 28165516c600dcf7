package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/mindflow/internal/cli/formatter"
	"github.com/alexanderramin/mindflow/internal/domain"
	"github.com/alexanderramin/mindflow/internal/service"
)

// stateMsg carries a fresh core state into the model.
type stateMsg service.State

// syncMsg carries a draft sync status change.
type syncMsg domain.SyncStatus

// opResultMsg reports a finished core operation.
type opResultMsg struct {
	state service.State
	err   error
}

// analysisDoneMsg reports a finished analysis run.
type analysisDoneMsg struct {
	state   service.State
	planned bool
	err     error
}

type tuiOption func(*tuiModel)

// withoutListener stops the model from waiting on core updates. Tests feed
// states explicitly.
func withoutListener() tuiOption {
	return func(m *tuiModel) { m.listen = false }
}

// withStaticCursor disables cursor blinking.
func withStaticCursor() tuiOption {
	return func(m *tuiModel) { m.staticCursor = true }
}

// focusOnly shows just the full-screen timer and quits when the session
// ends or is left.
func focusOnly() tuiOption {
	return func(m *tuiModel) { m.focusOnly = true }
}

// tuiModel is the root bubbletea model: three views over one plan core plus
// the full-screen focus timer.
type tuiModel struct {
	ctx        context.Context
	core       *service.PlanCore
	draft      *service.DraftSync
	syncStatus <-chan domain.SyncStatus
	keys       keyMap
	help  help.Model

	state  service.State
	sync   domain.SyncStatus
	width  int
	height int

	editor   textarea.Model
	addInput textinput.Model
	adding   bool
	cursor   int
	insights viewport.Model
	spin     spinner.Model

	analyzing    bool
	notice       string
	noticeErr    bool
	listen       bool
	staticCursor bool
	focusOnly    bool
	quitting     bool
}

func newTUIModel(ctx context.Context, rt *runtime, draftText string, opts ...tuiOption) tuiModel {
	editor := textarea.New()
	editor.Placeholder = "Everything on your mind: tasks, worries, deadlines, how you feel..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.SetValue(draftText)

	add := textinput.New()
	add.Placeholder = "New task"
	add.Prompt = "+ "

	m := tuiModel{
		ctx:        ctx,
		core:       rt.core,
		draft:      rt.draft,
		syncStatus: rt.syncStatus,
		keys:       defaultKeyMap(),
		help:       help.New(),
		state:      rt.core.State(),
		sync:       rt.draft.Status(),
		editor:     editor,
		addInput:   add,
		insights:   viewport.New(0, 0),
		spin:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(formatter.StylePurple)),
		listen:     true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.staticCursor {
		m.editor.Cursor.SetMode(cursor.CursorStatic)
		m.addInput.Cursor.SetMode(cursor.CursorStatic)
	}
	m.syncFocus()
	m.refreshInsights()
	return m
}

func (m tuiModel) Init() tea.Cmd {
	if m.focusOnly && !m.state.Focus.Active() {
		return tea.Quit
	}
	var cmds []tea.Cmd
	if m.listen {
		cmds = append(cmds, waitForState(m.core.Updates()), waitForSync(m.syncStatus))
	}
	if m.editor.Focused() && !m.staticCursor {
		cmds = append(cmds, textarea.Blink)
	}
	return tea.Batch(cmds...)
}

func waitForState(ch <-chan service.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func waitForSync(ch <-chan domain.SyncStatus) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return syncMsg(st)
	}
}

// do runs op against the core off the update loop.
func (m tuiModel) do(op func(ctx context.Context, core *service.PlanCore) error) tea.Cmd {
	ctx, core := m.ctx, m.core
	return func() tea.Msg {
		err := op(ctx, core)
		return opResultMsg{state: core.State(), err: err}
	}
}

func (m tuiModel) runAnalysis() tea.Cmd {
	ctx, core := m.ctx, m.core
	text, mode := m.editor.Value(), m.state.Mode
	return func() tea.Msg {
		plan, err := core.RunAnalysis(ctx, text, mode)
		return analysisDoneMsg{state: core.State(), planned: plan != nil, err: err}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		m.applyState(service.State(msg))
		if m.listen {
			return m, m.quitIfFocusDone(waitForState(m.core.Updates()))
		}
		return m, m.quitIfFocusDone(nil)

	case syncMsg:
		m.sync = domain.SyncStatus(msg)
		if m.listen {
			return m, waitForSync(m.syncStatus)
		}
		return m, nil

	case opResultMsg:
		m.applyState(msg.state)
		m.setError(msg.err)
		return m, m.quitIfFocusDone(nil)

	case analysisDoneMsg:
		m.analyzing = false
		m.applyState(msg.state)
		m.sync = m.draft.Status()
		if msg.planned {
			m.editor.Reset()
			m.cursor = 0
			m.editor.Blur()
		}
		m.setError(msg.err)
		if msg.err == nil && msg.planned {
			m.notify("Plan ready.")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.analyzing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state.Tab == domain.TabDump && m.editor.Focused() {
		return m.updateEditor(msg)
	}
	return m, nil
}

func taskCount(st service.State) int {
	if st.Plan == nil {
		return 0
	}
	return len(st.Plan.Tasks)
}

func (m *tuiModel) applyState(st service.State) {
	m.state = st
	if n := taskCount(st); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.syncFocus()
	m.refreshInsights()
}

func (m *tuiModel) setError(err error) {
	if err != nil {
		m.notice, m.noticeErr = err.Error(), true
	}
}

func (m *tuiModel) notify(text string) {
	m.notice, m.noticeErr = text, false
}

// syncFocus gives the editor keyboard focus exactly when the dump view is
// showing.
func (m *tuiModel) syncFocus() {
	if m.state.Tab == domain.TabDump && !m.state.Focus.FullScreen && !m.focusOnly {
		if !m.editor.Focused() {
			m.editor.Focus()
		}
		return
	}
	m.editor.Blur()
}

func (m *tuiModel) quitIfFocusDone(next tea.Cmd) tea.Cmd {
	if m.focusOnly && !m.state.Focus.Active() {
		m.quitting = true
		return tea.Quit
	}
	return next
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.state.Focus.FullScreen || m.focusOnly {
		return m.handleFocusKey(msg)
	}
	if m.adding {
		return m.handleAddKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(m.state.Tab.Next())
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab(m.state.Tab.Next().Next())
	case key.Matches(msg, m.keys.CycleMode):
		next := m.state.Mode.Next()
		return m, m.do(func(ctx context.Context, c *service.PlanCore) error { return c.SetMode(ctx, next) })
	}

	switch m.state.Tab {
	case domain.TabDump:
		return m.handleDumpKey(msg)
	case domain.TabPlan:
		return m.handlePlanKey(msg)
	default:
		return m.handleInsightsKey(msg)
	}
}

func (m *tuiModel) switchTab(tab domain.Tab) tea.Cmd {
	m.notice = ""
	// Applied locally at once so typing lands in the right view.
	m.state.Tab = tab
	m.syncFocus()
	return m.do(func(ctx context.Context, c *service.PlanCore) error { return c.SetTab(ctx, tab) })
}

func (m *tuiModel) layout() {
	w := max(m.width-4, 20)
	h := max(m.height-8, 5)
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.addInput.Width = w - 4
	m.insights.Width = w
	m.insights.Height = h
	m.help.Width = m.width
	m.refreshInsights()
}

func (m *tuiModel) refreshInsights() {
	if len(m.state.History) == 0 {
		m.insights.SetContent(formatter.Dim("No insights yet. Your analyses will show up here."))
		return
	}
	var b strings.Builder
	for i, it := range m.state.History {
		if i > 0 {
			b.WriteString("\n" + formatter.Dim(strings.Repeat("─", 40)) + "\n\n")
		}
		b.WriteString(formatter.Bold(it.Date) + "  " + formatter.ModeBadge(it.Mode) + "\n")
		b.WriteString(formatter.Dim(formatter.Truncate(strings.Join(strings.Fields(it.Content), " "), 80)) + "\n\n")
		b.WriteString(formatter.FormatAnalysis(it.Analysis))
	}
	m.insights.SetContent(b.String())
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}
	if m.state.Focus.FullScreen || m.focusOnly {
		return m.focusView()
	}

	var body string
	switch m.state.Tab {
	case domain.TabDump:
		body = m.dumpView()
	case domain.TabPlan:
		body = m.planView()
	default:
		body = m.insights.View()
	}

	sections := []string{m.headerView(), body}
	if bar := m.focusBar(); bar != "" {
		sections = append(sections, bar)
	}
	sections = append(sections, m.footerView())
	return strings.Join(sections, "\n")
}

func (m tuiModel) headerView() string {
	tabs := make([]string, 0, len(domain.Tabs))
	for _, t := range domain.Tabs {
		label := strings.ToUpper(string(t[:1])) + string(t[1:])
		if t == m.state.Tab {
			tabs = append(tabs, formatter.StyleHeader.Render("["+label+"]"))
		} else {
			tabs = append(tabs, formatter.Dim(" "+label+" "))
		}
	}
	left := formatter.StylePurple.Render("mindflow") + "  " + strings.Join(tabs, " ")
	right := formatter.ModeBadge(m.state.Mode) + "  " + m.syncBadge()
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 2)
	sep := formatter.Dim(strings.Repeat("─", max(m.width, 20)))
	return left + strings.Repeat(" ", gap) + right + "\n" + sep
}

func (m tuiModel) syncBadge() string {
	if m.sync == domain.SyncPending {
		return formatter.StyleYellow.Render("● syncing")
	}
	return formatter.Dim("● synced")
}

func (m tuiModel) footerView() string {
	var line string
	switch {
	case m.notice != "" && m.noticeErr:
		line = formatter.StyleRed.Render("✖ " + m.notice)
	case m.notice != "":
		line = formatter.StyleGreen.Render(m.notice)
	case m.state.LastError != "":
		line = formatter.StyleYellow.Render("⚠ " + m.state.LastError)
	}
	hints := m.help.ShortHelpView(m.shortHelp())
	sep := formatter.Dim(strings.Repeat("─", max(m.width, 20)))
	if line == "" {
		return sep + "\n" + hints
	}
	return sep + "\n" + line + "\n" + hints
}

func (m tuiModel) shortHelp() []key.Binding {
	k := m.keys
	switch {
	case m.adding:
		return []key.Binding{k.Confirm, k.Back}
	case m.state.Tab == domain.TabDump:
		return []key.Binding{k.Analyze, k.CycleMode, k.NextTab}
	case m.state.Tab == domain.TabPlan:
		hints := []key.Binding{k.Up, k.Down, k.Toggle, k.Focus, k.Add, k.Break}
		if m.state.Focus.Active() {
			hints = append(hints, k.Finish, k.FullScreen)
		}
		return append(hints, k.NextTab, k.Quit)
	default:
		return []key.Binding{k.Up, k.Down, k.NextTab, k.Quit}
	}
}

// runTUI opens the interactive view until the user quits. opts are added
// after the defaults.
func runTUI(ctx context.Context, app *App, opts ...tea.ProgramOption) error {
	rt, err := app.startCore(ctx)
	if err != nil {
		return err
	}
	defer rt.stop()

	text, err := rt.draft.Seed(ctx)
	if err != nil {
		app.logger().Warn("tui.draft_seed.failed", "error", err)
	}
	m := newTUIModel(ctx, rt, text)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err = tea.NewProgram(m, opts...).Run()

	// Leaving drops an unsaved edit; only the quiet period persists drafts.
	rt.draft.Stop()
	return err
}
