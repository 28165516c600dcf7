// Package teatest drives bubbletea models synchronously in tests.
//
// A Driver stands in for tea.Program: it calls Update directly and runs
// every returned Cmd inline, feeding the resulting messages back until the
// model settles. Cmds that do not return within the per-Cmd timeout (cursor
// blinks, spinner ticks, channel listeners) are dropped.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds how many Cmd generations one message may trigger.
const MaxDrainDepth = 100

// DefaultCmdTimeout is how long a Cmd may run before it is dropped.
const DefaultCmdTimeout = 10 * time.Millisecond

// Driver is a synchronous harness for one tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a tea.Quit Cmd has run.
	Quitting bool

	cmdTimeout time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// New wraps model. Call DrainInit before sending input.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model, cmdTimeout: DefaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.Model, _ = d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithCmdTimeout raises the per-Cmd wait for models whose Cmds do real I/O.
// Cmds that block on timers still cost up to the timeout each, so such
// models should keep blinking cursors and listeners switched off.
func WithCmdTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.cmdTimeout = timeout
		}
	}
}

// DrainInit runs the model's Init Cmd.
func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send delivers msg and drains whatever it triggers. Nothing is delivered
// after the model has quit.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.drain(cmd, 0)
}

// SendKey delivers a key message.
func (d *Driver) SendKey(msg tea.KeyMsg) {
	d.T.Helper()
	d.Send(msg)
}

var namedKeys = map[string]tea.KeyMsg{
	"enter":     {Type: tea.KeyEnter},
	"esc":       {Type: tea.KeyEsc},
	"tab":       {Type: tea.KeyTab},
	"shift+tab": {Type: tea.KeyShiftTab},
	"space":     {Type: tea.KeySpace, Runes: []rune{' '}},
	"up":        {Type: tea.KeyUp},
	"down":      {Type: tea.KeyDown},
	"backspace": {Type: tea.KeyBackspace},
	"ctrl+c":    {Type: tea.KeyCtrlC},
	"ctrl+o":    {Type: tea.KeyCtrlO},
	"ctrl+r":    {Type: tea.KeyCtrlR},
}

// Press sends each named key in turn, e.g. Press("down", "space"). A name
// of one rune is sent as that character.
func (d *Driver) Press(names ...string) {
	d.T.Helper()
	for _, name := range names {
		if msg, ok := namedKeys[name]; ok {
			d.SendKey(msg)
			continue
		}
		if r := []rune(name); len(r) == 1 {
			d.PressKey(r[0])
			continue
		}
		d.T.Fatalf("teatest: unknown key %q", name)
	}
}

// PressKey sends a single character.
func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.SendKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// Type sends s one character at a time.
func (d *Driver) Type(s string) {
	d.T.Helper()
	for _, r := range s {
		d.PressKey(r)
	}
}

// View renders the model.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg := run(cmd, d.cmdTimeout)
	switch m := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range m {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		d.Model, _ = d.Model.Update(m)
		return
	}
	if isBlink(msg) {
		return
	}

	var next tea.Cmd
	d.Model, next = d.Model.Update(msg)
	d.drain(next, depth+1)
}

// run executes cmd, giving up after timeout.
func run(cmd tea.Cmd, timeout time.Duration) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		return nil
	}
}

// isBlink matches the unexported cursor blink messages of bubbles/cursor,
// which would otherwise re-arm a blocking timer.
func isBlink(msg tea.Msg) bool {
	return strings.Contains(strings.ToLower(fmt.Sprintf("%T", msg)), "blink")
}
