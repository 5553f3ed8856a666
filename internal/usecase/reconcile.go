package usecase

import (
	"context"
	"errors"
	"log/slog"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/ports"
)

// Reconciler replaces client-held session state with the authority's view,
// falling back to the durable snapshot store when the authority cannot be
// reached.
type Reconciler struct {
	Log       *slog.Logger
	Authority ports.Authority
	Store     ports.SnapshotStore
}

// Reconcile fetches the authoritative session for an identity. On success
// the result is verified and written through to the store, overwriting any
// local snapshot. On any remote failure the persisted snapshot for the same
// identity is used instead, marked unverified; that path is recovered
// locally and returns no error.
func (r *Reconciler) Reconcile(ctx context.Context, identity string) (domain.Session, error) {
	if r.Authority == nil || r.Store == nil {
		return domain.Session{}, errors.New("reconciler not initialized: missing dependencies")
	}

	st, err := r.Authority.Status(ctx, identity)
	if err != nil {
		r.Log.Warn("reconciliation falling back to local snapshot",
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
		return r.fallback(ctx, identity), nil
	}

	session := domain.Session{
		Identity:   identity,
		ClockInAt:  st.CheckInAt,
		ClockOutAt: st.CheckOutAt,
		Running:    st.CheckInAt != nil && st.CheckOutAt == nil,
		Verified:   true,
	}
	if err := r.Store.Save(ctx, identity, session.Snapshot()); err != nil {
		// Best-effort durability; the authority remains the source of truth.
		r.Log.Warn("persisting snapshot failed",
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
	}
	r.Log.Info("session reconciled",
		slog.String("identity", identity),
		slog.String("state", session.State().String()),
	)
	return session, nil
}

func (r *Reconciler) fallback(ctx context.Context, identity string) domain.Session {
	snap, ok, err := r.Store.Load(ctx, identity)
	if err != nil {
		r.Log.Warn("loading snapshot failed, starting empty",
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
		ok = false
	}
	if !ok {
		return domain.Session{Identity: identity}
	}
	return domain.SessionFromSnapshot(identity, snap)
}
