package store

import (
	"context"
	"sync"
)

// hub fans change notifications out to subscriptions. Each subscription
// has its own delivery goroutine and a one-slot wake channel, so bursts of
// writes collapse into a single re-read and callbacks never run on the
// writer's goroutine.
type hub struct {
	read func(ctx context.Context, path string) (Snapshot, error)

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
}

type subscription struct {
	path     string
	onChange func(Snapshot, error)
	wake     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newHub(read func(ctx context.Context, path string) (Snapshot, error)) *hub {
	return &hub{read: read, subs: map[int]*subscription{}}
}

func (h *hub) subscribe(path string, onChange func(Snapshot, error)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	s := &subscription{
		path:     path,
		onChange: onChange,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	s.wake <- struct{}{}
	go h.deliver(s)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		s.stop()
	}, nil
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (h *hub) deliver(s *subscription) {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		snap, err := h.read(context.Background(), s.path)
		select {
		case <-s.done:
			return
		default:
		}
		s.onChange(snap, err)
	}
}

// notify wakes every subscription whose path is related to changed.
func (h *hub) notify(changed string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if !Related(s.path, changed) {
			continue
		}
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		s.stop()
		delete(h.subs, id)
	}
}
