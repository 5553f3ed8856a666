package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/ports"
)

var (
	// ErrInFlight rejects a second invocation of an action while one is
	// outstanding.
	ErrInFlight = errors.New("action already in flight")
	// ErrNotRunning rejects clock-out when no session is open.
	ErrNotRunning = errors.New("no running session to clock out")
	// ErrNotConfirmed aborts clock-out when the user declines the prompt.
	ErrNotConfirmed = errors.New("clock-out not confirmed")
)

// Dispatcher is the only component allowed to mutate the session. Both
// actions run the same pipeline: acquire position, call the remote
// mutation, transition local state only once the authority confirmed, then
// persist and notify.
type Dispatcher struct {
	Log       *slog.Logger
	Authority ports.Authority
	Store     ports.SnapshotStore
	Sensor    ports.LocationSensor
	Notifier  ports.Notifier
	Confirmer ports.Confirmer

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time

	clockInBusy  atomic.Bool
	clockOutBusy atomic.Bool
}

// ClockIn opens a session for the session's identity. There is no
// precondition on current state: re-clock-in attempts are sent through and
// the authority arbitrates their legality.
func (d *Dispatcher) ClockIn(ctx context.Context, session domain.Session) (domain.Session, error) {
	if !d.clockInBusy.CompareAndSwap(false, true) {
		return session, ErrInFlight
	}
	defer d.clockInBusy.Store(false)

	pos, err := d.Sensor.Position(ctx)
	if err != nil {
		d.fail(session.Identity, "clock-in", err)
		return session, err
	}

	requestID := uuid.NewString()
	if err := d.Authority.ClockIn(ctx, session.Identity, pos, requestID); err != nil {
		d.fail(session.Identity, "clock-in", err)
		return session, err
	}

	now := d.now()
	session.ClockInAt = &now
	session.ClockOutAt = nil
	session.Running = true
	session.Verified = true

	d.persist(ctx, session)
	d.Notifier.Success(session.Identity,
		fmt.Sprintf("Clocked in at %s", now.Format("15:04:05")))
	d.Log.Info("clock-in confirmed",
		slog.String("identity", session.Identity),
		slog.String("request_id", requestID),
		slog.Time("at", now),
	)
	return session, nil
}

// ClockOut closes the running session. A confirmation step interposes
// before anything else happens; clock-in carries no such gate since ending
// a session is the higher-cost mistake.
func (d *Dispatcher) ClockOut(ctx context.Context, session domain.Session) (domain.Session, error) {
	if !session.Running {
		return session, ErrNotRunning
	}
	if !d.clockOutBusy.CompareAndSwap(false, true) {
		return session, ErrInFlight
	}
	defer d.clockOutBusy.Store(false)

	if d.Confirmer != nil {
		ok, err := d.Confirmer.Confirm(ctx, "End the current session?")
		if err != nil {
			return session, err
		}
		if !ok {
			return session, ErrNotConfirmed
		}
	}

	pos, err := d.Sensor.Position(ctx)
	if err != nil {
		d.fail(session.Identity, "clock-out", err)
		return session, err
	}

	requestID := uuid.NewString()
	if err := d.Authority.ClockOut(ctx, session.Identity, pos, requestID); err != nil {
		d.fail(session.Identity, "clock-out", err)
		return session, err
	}

	now := d.now()
	session.ClockOutAt = &now
	session.Running = false
	session.Verified = true

	d.persist(ctx, session)
	d.Notifier.Success(session.Identity,
		fmt.Sprintf("Clocked out at %s", now.Format("15:04:05")))
	d.Log.Info("clock-out confirmed",
		slog.String("identity", session.Identity),
		slog.String("request_id", requestID),
		slog.Time("at", now),
	)
	return session, nil
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) persist(ctx context.Context, session domain.Session) {
	if err := d.Store.Save(ctx, session.Identity, session.Snapshot()); err != nil {
		d.Log.Warn("persisting snapshot failed",
			slog.String("identity", session.Identity),
			slog.String("error", err.Error()),
		)
	}
}

func (d *Dispatcher) fail(identity, action string, err error) {
	kind := domain.KindOf(err)
	msg := userMessage(action, err)
	d.Notifier.Failure(identity, kind, msg)
	d.Log.Warn("action failed",
		slog.String("identity", identity),
		slog.String("action", action),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
}

// userMessage maps an error kind to the message shown to the user.
func userMessage(action string, err error) string {
	switch domain.KindOf(err) {
	case domain.KindSensorUnsupported:
		return "Location is not available on this device."
	case domain.KindSensorPermissionDenied:
		return "Location access was denied. Grant permission and try again."
	case domain.KindSensorTimeout:
		return "Timed out acquiring your location. Try again."
	case domain.KindRemoteRejected:
		return fmt.Sprintf("The attendance service declined the %s: %s", action, domain.MessageOf(err))
	case domain.KindRemoteUnreachable:
		return "The attendance service is unreachable. Try again."
	default:
		return fmt.Sprintf("The %s failed: %s", action, domain.MessageOf(err))
	}
}
