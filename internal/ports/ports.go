package ports

import (
	"context"

	"attendance-tracker/internal/domain"
)

// Authority is the remote system of record for attendance sessions.
type Authority interface {
	// Status fetches the authority's current session view for an identity.
	Status(ctx context.Context, identity string) (domain.RemoteStatus, error)
	// ClockIn opens a session at the given position. requestID correlates
	// retries of the same user action.
	ClockIn(ctx context.Context, identity string, pos domain.Position, requestID string) error
	// ClockOut closes the open session at the given position.
	ClockOut(ctx context.Context, identity string, pos domain.Position, requestID string) error
}

// SnapshotStore persists per-identity session snapshots. Implementations
// map "no entry" and corrupt data to (zero, false, nil): a failed read must
// never take the session flow down, the authority remains the source of
// truth.
type SnapshotStore interface {
	Save(ctx context.Context, identity string, snap domain.Snapshot) error
	Load(ctx context.Context, identity string) (domain.Snapshot, bool, error)
}

// LocationSensor produces a single bounded position fix. Failures are
// classified via domain error kinds; the sensor never retries.
type LocationSensor interface {
	Position(ctx context.Context) (domain.Position, error)
}

// Notifier surfaces action outcomes to the acting user.
type Notifier interface {
	Success(identity, message string)
	Failure(identity string, kind domain.Kind, message string)
}

// Confirmer interposes a human yes/no step before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}
