package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrNoInbox       = errors.New("session has no inbox")
)

// Session owns a Controller and runs every call against it on a single
// goroutine, in arrival order.
type Session struct {
	ID string

	ctrl     *Controller
	position *PositionReport
	inbox    Inbox
	detach   func()

	events    chan func(*Controller)
	quit      chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
	lastSeen  atomic.Int64
}

func newSession(id string, ctrl *Controller, position *PositionReport, views Collaborators) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		ctrl:     ctrl,
		position: position,
		inbox:    views.Inbox,
		detach:   views.Detach,
		events:   make(chan func(*Controller), 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	s.touch()
	ctrl.dispatch = func(fn func(*Controller)) { s.Post(fn) }

	go s.run()
	go s.locate(ctx, position)
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.events:
			s.apply(fn)
		case <-s.quit:
			return
		}
	}
}

func (s *Session) apply(fn func(*Controller)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: event panic: %v", s.ID, r)
		}
	}()
	fn(s.ctrl)
}

// locate issues the single geolocation request of the session.
func (s *Session) locate(ctx context.Context, g Geolocator) {
	at, err := g.CurrentPosition(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.Post(func(c *Controller) { c.OnLocationFailed(err) })
		return
	}
	s.Post(func(c *Controller) { c.OnMapReady(at) })
}

// Post queues fn without waiting for it to run. It reports false once the
// session is closed.
func (s *Session) Post(fn func(*Controller)) bool {
	s.touch()
	select {
	case s.events <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// Do runs fn on the session goroutine and waits for it to return.
func (s *Session) Do(ctx context.Context, fn func(*Controller)) error {
	s.touch()
	finished := make(chan struct{})
	wrapped := func(c *Controller) {
		defer close(finished)
		fn(c)
	}

	select {
	case s.events <- wrapped:
	case <-s.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver hands a raw client event to the session's inbox.
func (s *Session) Deliver(raw []byte) error {
	if s.inbox == nil {
		return ErrNoInbox
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	s.touch()
	return s.inbox.Deliver(raw)
}

func (s *Session) Position() *PositionReport {
	return s.position
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.quit)
		if s.detach != nil {
			s.detach()
		}
	})
}

func (s *Session) Closed() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}
