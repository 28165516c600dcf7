package domain

// FocusState is the derived state of a focus session.
type FocusState string

const (
	FocusIdle    FocusState = "idle"
	FocusRunning FocusState = "running"
	FocusPaused  FocusState = "paused"
)

// FocusEvent drives the focus session state machine.
type FocusEvent string

const (
	FocusStart  FocusEvent = "start"
	FocusToggle FocusEvent = "toggle"
	FocusTick   FocusEvent = "tick"
	FocusFinish FocusEvent = "finish"
)

// focusTransitions lists every legal transition. Events missing for a
// state are ignored. A tick that reaches zero is turned into a finish by
// Tick, so it never appears here as running -> idle.
var focusTransitions = map[FocusState]map[FocusEvent]FocusState{
	FocusIdle: {
		FocusStart: FocusRunning,
	},
	FocusRunning: {
		FocusStart:  FocusRunning,
		FocusToggle: FocusPaused,
		FocusTick:   FocusRunning,
		FocusFinish: FocusIdle,
	},
	FocusPaused: {
		FocusStart:  FocusRunning,
		FocusToggle: FocusRunning,
		FocusFinish: FocusIdle,
	},
}

// Allows reports whether ev is legal from state s.
func (s FocusState) Allows(ev FocusEvent) bool {
	_, ok := focusTransitions[s][ev]
	return ok
}

// FocusSession is the single countdown bound to one task. The zero value
// is the idle session.
type FocusSession struct {
	TaskIndex        *int `json:"taskIndex"`
	RemainingSeconds int  `json:"remainingSeconds"`
	Running          bool `json:"running"`
	FullScreen       bool `json:"fullScreen"`
}

// State derives the machine state from the session fields.
func (f FocusSession) State() FocusState {
	switch {
	case f.TaskIndex == nil:
		return FocusIdle
	case f.Running:
		return FocusRunning
	default:
		return FocusPaused
	}
}

// Active reports whether a session is bound to a task.
func (f FocusSession) Active() bool {
	return f.TaskIndex != nil
}

// Index returns the bound task index, or -1 when idle.
func (f FocusSession) Index() int {
	if f.TaskIndex == nil {
		return -1
	}
	return *f.TaskIndex
}

// Start replaces any existing session with a fresh running one.
func (f FocusSession) Start(index, durationMinutes int) FocusSession {
	if durationMinutes < 0 {
		durationMinutes = 0
	}
	idx := index
	return FocusSession{
		TaskIndex:        &idx,
		RemainingSeconds: durationMinutes * 60,
		Running:          true,
		FullScreen:       f.FullScreen && f.Active(),
	}
}

// Toggle pauses a running session or resumes a paused one.
func (f FocusSession) Toggle() FocusSession {
	if !f.State().Allows(FocusToggle) {
		return f
	}
	f.Running = !f.Running
	return f
}

// Tick advances a running session by one second. The second result is true
// when the session has run out and must be finished.
func (f FocusSession) Tick() (FocusSession, bool) {
	if !f.State().Allows(FocusTick) {
		return f, false
	}
	if f.RemainingSeconds > 0 {
		f.RemainingSeconds--
	}
	return f, f.RemainingSeconds == 0
}

// Expired reports a running session with no time left.
func (f FocusSession) Expired() bool {
	return f.State() == FocusRunning && f.RemainingSeconds == 0
}

// Finish clears the session and returns the task index that must be marked
// completed. ok is false when there was no session.
func (f FocusSession) Finish() (next FocusSession, index int, ok bool) {
	if !f.State().Allows(FocusFinish) {
		return f, -1, false
	}
	return FocusSession{}, *f.TaskIndex, true
}

// SetFullScreen changes the full-screen flag of an active session.
func (f FocusSession) SetFullScreen(on bool) FocusSession {
	if !f.Active() {
		return f
	}
	f.FullScreen = on
	return f
}
