package domain

import "time"

// State is the tri-state lifecycle of an attendance session.
type State int

const (
	// StateIdle means the identity has not clocked in.
	StateIdle State = iota
	// StateActive means the identity is clocked in and the session is open.
	StateActive
	// StateClosed means the identity has clocked out.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// Session is the in-memory working copy of one identity's attendance state.
// ClockOutAt is never set while ClockInAt is unset, and Running holds exactly
// when ClockInAt is set and ClockOutAt is not.
type Session struct {
	Identity   string
	ClockInAt  *time.Time
	ClockOutAt *time.Time
	Running    bool
	// Verified is true when the session came from a successful read of the
	// remote authority (or a confirmed mutation). A session hydrated from
	// the local snapshot store is unverified and is superseded by the next
	// successful reconciliation.
	Verified bool
}

// State derives the lifecycle state from the timestamps.
func (s Session) State() State {
	switch {
	case s.ClockInAt == nil:
		return StateIdle
	case s.ClockOutAt == nil:
		return StateActive
	default:
		return StateClosed
	}
}

// Consistent reports whether the session satisfies its invariants.
func (s Session) Consistent() bool {
	if s.ClockOutAt != nil && s.ClockInAt == nil {
		return false
	}
	return s.Running == (s.ClockInAt != nil && s.ClockOutAt == nil)
}

// Elapsed returns the duration to display at the given instant: zero while
// idle, time since clock-in while active, and frozen at the clock-out
// instant once closed.
func (s Session) Elapsed(now time.Time) time.Duration {
	if s.ClockInAt == nil {
		return 0
	}
	if s.ClockOutAt != nil {
		return s.ClockOutAt.Sub(*s.ClockInAt)
	}
	d := now.Sub(*s.ClockInAt)
	if d < 0 {
		return 0
	}
	return d
}

// Snapshot is the durable projection of a session. Timestamps are epoch
// milliseconds; zero means absent.
type Snapshot struct {
	ClockInMillis  int64 `json:"clockInAt,omitempty"`
	ClockOutMillis int64 `json:"clockOutAt,omitempty"`
	Running        bool  `json:"running"`
}

// Snapshot projects the session into its durable form.
func (s Session) Snapshot() Snapshot {
	var snap Snapshot
	if s.ClockInAt != nil {
		snap.ClockInMillis = s.ClockInAt.UnixMilli()
	}
	if s.ClockOutAt != nil {
		snap.ClockOutMillis = s.ClockOutAt.UnixMilli()
	}
	snap.Running = s.Running
	return snap
}

// SessionFromSnapshot rebuilds an unverified session from a persisted
// snapshot. The Running flag is rederived from the timestamps so a corrupt
// flag cannot break the session invariant.
func SessionFromSnapshot(identity string, snap Snapshot) Session {
	s := Session{Identity: identity}
	if snap.ClockInMillis > 0 {
		t := time.UnixMilli(snap.ClockInMillis).UTC()
		s.ClockInAt = &t
	}
	if snap.ClockOutMillis > 0 && s.ClockInAt != nil {
		t := time.UnixMilli(snap.ClockOutMillis).UTC()
		s.ClockOutAt = &t
	}
	s.Running = s.ClockInAt != nil && s.ClockOutAt == nil
	return s
}

// RemoteStatus is the authority's view of the current session.
type RemoteStatus struct {
	CheckInAt  *time.Time
	CheckOutAt *time.Time
}

// Position is a single geolocation fix. It is consumed immediately by the
// action pipeline and never persisted.
type Position struct {
	Latitude  float64
	Longitude float64
}
