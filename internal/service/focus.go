package service

import (
	"context"
	"time"

	"github.com/alexanderramin/mindflow/internal/domain"
)

// StartFocus binds a running countdown of durationMinutes to the task at
// index, discarding any previous session. A zero duration finishes the
// task at once.
func (c *PlanCore) StartFocus(ctx context.Context, index, durationMinutes int) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"index": index, "minutes": durationMinutes}
	defer func() { c.observe(ctx, "start-focus", startedAt, fields, err) }()

	var finished finishResult
	if err := c.apply(ctx, func(st *State) error {
		if st.Plan == nil {
			return domain.ErrNoPlan
		}
		if !st.Plan.HasTask(index) {
			return domain.ErrTaskIndex
		}
		st.Focus = st.Focus.Start(index, durationMinutes)
		if st.Focus.Expired() {
			finished = c.finishLocked(st)
			return nil
		}
		c.startTicker()
		return nil
	}); err != nil {
		return err
	}
	return c.completeFinished(ctx, finished)
}

// PauseResumeFocus pauses a running session or resumes a paused one. The
// remaining time is kept.
func (c *PlanCore) PauseResumeFocus(ctx context.Context) error {
	return c.apply(ctx, func(st *State) error {
		st.Focus = st.Focus.Toggle()
		if st.Focus.State() == domain.FocusRunning {
			c.startTicker()
		} else {
			c.stopTicker()
		}
		return nil
	})
}

// FinishFocus completes the session task, leaves full-screen and clears the
// session. Without a session it does nothing.
func (c *PlanCore) FinishFocus(ctx context.Context) (err error) {
	startedAt := time.Now()
	var finished finishResult
	defer func() {
		if finished.ok {
			c.observe(ctx, "finish-focus", startedAt, map[string]any{"index": finished.index}, err)
		}
	}()

	if err := c.apply(ctx, func(st *State) error {
		finished = c.finishLocked(st)
		return nil
	}); err != nil {
		return err
	}
	return c.completeFinished(ctx, finished)
}

// EnterFullScreen shows the active session full-screen.
func (c *PlanCore) EnterFullScreen(ctx context.Context) error {
	return c.apply(ctx, func(st *State) error {
		st.Focus = st.Focus.SetFullScreen(true)
		return nil
	})
}

// ExitFullScreen returns to the regular views; the session keeps running.
func (c *PlanCore) ExitFullScreen(ctx context.Context) error {
	return c.apply(ctx, func(st *State) error {
		st.Focus = st.Focus.SetFullScreen(false)
		return nil
	})
}

type finishResult struct {
	index int
	ok    bool
	write bool
}

// finishLocked ends the session on the loop and marks its task complete
// locally. write reports whether the task still exists and must be stored.
func (c *PlanCore) finishLocked(st *State) finishResult {
	c.stopTicker()
	next, index, ok := st.Focus.Finish()
	st.Focus = next
	if !ok {
		return finishResult{index: -1}
	}
	res := finishResult{index: index, ok: true}
	if st.Plan.HasTask(index) {
		st.Plan.Tasks[index].Completed = true
		res.write = true
	}
	return res
}

func (c *PlanCore) completeFinished(ctx context.Context, res finishResult) error {
	if !res.write {
		return nil
	}
	return c.writeCompletion(ctx, res.index, true)
}

// startTicker (re)starts the countdown. Must run on the loop.
func (c *PlanCore) startTicker() {
	c.stopTicker()
	stop := make(chan struct{})
	c.tickStop = stop
	go func() {
		t := time.NewTicker(c.tick)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.done:
				return
			case <-t.C:
				c.post(func() { c.onTick(stop) })
			}
		}
	}()
}

// stopTicker cancels the countdown. Must run on the loop.
func (c *PlanCore) stopTicker() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}

func (c *PlanCore) onTick(stop chan struct{}) {
	if c.tickStop != stop {
		return
	}
	var expired bool
	c.state.Focus, expired = c.state.Focus.Tick()
	if !expired {
		return
	}
	res := c.finishLocked(&c.state)
	if res.write {
		go func() {
			_ = c.completeFinished(context.Background(), res)
		}()
	}
}
