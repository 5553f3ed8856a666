package usecase

import (
	"context"
	"log/slog"
	"sync"

	"attendance-tracker/internal/domain"
)

// EventType discriminates tracker events sent to subscribers.
type EventType string

const (
	EventSession EventType = "session"
	EventTick    EventType = "tick"
)

// Event is a tracker notification: either a session change or a live tick.
type Event struct {
	Type    EventType      `json:"type"`
	Session domain.Session `json:"session"`
	Tick    *Tick          `json:"tick,omitempty"`
}

// Tracker owns the session for the currently active identity. It serializes
// every state transition, discards reconciliation results that resolve
// after a newer identity activation, and starts/stops the live ticker on
// every running-flag flip.
type Tracker struct {
	Log        *slog.Logger
	Reconciler *Reconciler
	Dispatcher *Dispatcher
	Ticker     *Ticker

	mu         sync.Mutex
	gen        uint64 // bumped on every identity activation
	session    domain.Session
	tickCancel context.CancelFunc
	subs       map[uint64]chan Event
	nextSub    uint64
}

// ActivateIdentity makes id the acting identity and kicks off its
// reconciliation. The session resets immediately so nothing from the
// previous identity leaks into the new view; the reconciliation result is
// applied only if no newer activation has happened in the meantime.
func (t *Tracker) ActivateIdentity(ctx context.Context, id string) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.stopTickerLocked()
	t.session = domain.Session{Identity: id}
	t.broadcastLocked(Event{Type: EventSession, Session: t.session})
	t.mu.Unlock()

	t.Log.Info("identity activated", slog.String("identity", id))

	go func() {
		session, err := t.Reconciler.Reconcile(ctx, id)
		if err != nil {
			t.Log.Error("reconciliation failed",
				slog.String("identity", id),
				slog.String("error", err.Error()),
			)
			return
		}
		t.apply(gen, session)
	}()
}

// ClockIn runs the clock-in pipeline against the current session.
func (t *Tracker) ClockIn(ctx context.Context) (domain.Session, error) {
	gen, session := t.current()
	session, err := t.Dispatcher.ClockIn(ctx, session)
	if err != nil {
		return session, err
	}
	t.apply(gen, session)
	return session, nil
}

// ClockOut runs the confirmation-gated clock-out pipeline against the
// current session.
func (t *Tracker) ClockOut(ctx context.Context) (domain.Session, error) {
	gen, session := t.current()
	session, err := t.Dispatcher.ClockOut(ctx, session)
	if err != nil {
		return session, err
	}
	t.apply(gen, session)
	return session, nil
}

// Session returns a copy of the current session.
func (t *Tracker) Session() domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Subscribe registers a listener for session changes and ticks. The
// returned cancel function must be called when the listener goes away.
// Slow listeners drop events rather than blocking the tracker.
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[uint64]chan Event)
	}
	id := t.nextSub
	t.nextSub++
	ch := make(chan Event, 16)
	t.subs[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// Shutdown stops any live ticker.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickerLocked()
}

func (t *Tracker) current() (uint64, domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen, t.session
}

// apply installs a session produced for generation gen. A result belonging
// to a superseded generation is discarded: the newest activation wins, not
// the last to resolve.
func (t *Tracker) apply(gen uint64, session domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		t.Log.Debug("discarding stale session result",
			slog.String("identity", session.Identity))
		return
	}
	t.session = session
	t.stopTickerLocked()
	t.startTickerLocked(gen)
	t.broadcastLocked(Event{Type: EventSession, Session: session})
}

func (t *Tracker) startTickerLocked(gen uint64) {
	if !t.session.Running || t.Ticker == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.tickCancel = cancel
	session := t.session
	go t.Ticker.Run(ctx, session, func(tick Tick) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen || !t.session.Running {
			return
		}
		t.broadcastLocked(Event{Type: EventTick, Session: t.session, Tick: &tick})
	})
}

func (t *Tracker) stopTickerLocked() {
	if t.tickCancel != nil {
		t.tickCancel()
		t.tickCancel = nil
	}
}

func (t *Tracker) broadcastLocked(ev Event) {
	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
			// Listener is not keeping up; drop rather than block.
		}
	}
}
