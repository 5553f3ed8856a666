package usecase

import (
	"context"
	"time"

	"attendance-tracker/internal/domain"
)

// Tick is one emission of the live elapsed-time display.
type Tick struct {
	Identity string        `json:"identity"`
	At       time.Time     `json:"at"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Ticker drives the live display while a session is active. It emits once
// per interval iff the session is running and returns as soon as the
// context is cancelled; for non-running sessions it emits nothing at all.
// The frozen (closed) and neutral (idle) displays need no ticking, their
// value is derived directly from the session.
type Ticker struct {
	Interval time.Duration
}

// Run blocks, emitting ticks for the given session until ctx is cancelled.
// The caller restarts the ticker whenever the running flag flips or the
// identity changes, so a session here is immutable for the ticker's
// lifetime.
func (t *Ticker) Run(ctx context.Context, session domain.Session, emit func(Tick)) {
	if !session.Running {
		return
	}
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			emit(Tick{
				Identity: session.Identity,
				At:       now.UTC(),
				Elapsed:  session.Elapsed(now),
			})
		}
	}
}
