package usecase

import (
	"context"
	"testing"
	"time"

	"attendance-tracker/internal/domain"
)

func newTracker(auth *fakeAuthority, store *recordingStore) *Tracker {
	return &Tracker{
		Log:        testLogger(),
		Reconciler: &Reconciler{Log: testLogger(), Authority: auth, Store: store},
		Dispatcher: &Dispatcher{
			Log:       testLogger(),
			Authority: auth,
			Store:     store,
			Sensor:    &fakeSensor{},
			Notifier:  &recordingNotifier{},
			Confirmer: &staticConfirmer{answer: true},
		},
		Ticker: &Ticker{Interval: 10 * time.Millisecond},
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestActivateReconcilesAndStartsTicking(t *testing.T) {
	in := time.Now().UTC().Add(-time.Hour)
	auth := &fakeAuthority{status: domain.RemoteStatus{CheckInAt: &in}}
	tr := newTracker(auth, newRecordingStore())
	defer tr.Shutdown()

	events, cancel := tr.Subscribe()
	defer cancel()

	tr.ActivateIdentity(context.Background(), "u1")
	waitFor(t, func() bool {
		return tr.Session().State() == domain.StateActive && tr.Session().Verified
	}, "session never became active")

	// A running session must produce tick events.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventTick {
				if ev.Tick.Elapsed < time.Hour {
					t.Fatalf("tick elapsed = %v, want >= 1h", ev.Tick.Elapsed)
				}
				return
			}
		case <-deadline:
			t.Fatal("no tick event for an active session")
		}
	}
}

func TestActivateIdleSessionNeverTicks(t *testing.T) {
	auth := &fakeAuthority{} // no remote session
	tr := newTracker(auth, newRecordingStore())
	defer tr.Shutdown()

	events, cancel := tr.Subscribe()
	defer cancel()

	tr.ActivateIdentity(context.Background(), "u1")
	waitFor(t, func() bool { return tr.Session().Verified }, "reconcile never applied")

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventTick {
				t.Fatal("tick emitted for an idle session")
			}
		case <-timeout:
			return
		}
	}
}

func TestStaleReconciliationIsDiscarded(t *testing.T) {
	in := time.Now().UTC().Add(-time.Hour)
	gate := make(chan struct{})
	auth := &fakeAuthority{
		statusByIdentity: map[string]domain.RemoteStatus{
			"u1": {CheckInAt: &in},
			"u2": {},
		},
		statusGate:   gate,
		gateIdentity: "u1",
	}
	tr := newTracker(auth, newRecordingStore())
	defer tr.Shutdown()

	// u1's reconciliation hangs; the identity switches to u2 meanwhile.
	tr.ActivateIdentity(context.Background(), "u1")
	tr.ActivateIdentity(context.Background(), "u2")
	waitFor(t, func() bool {
		s := tr.Session()
		return s.Identity == "u2" && s.Verified
	}, "u2 never reconciled")

	// Release u1's late result: it must not clobber u2's session. The late
	// result would make the session active for u1, so absence of that is
	// the assertion.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	s := tr.Session()
	if s.Identity != "u2" {
		t.Fatalf("late reconciliation overwrote identity: %+v", s)
	}
	if s.State() != domain.StateIdle {
		t.Fatalf("late reconciliation leaked state: %+v", s)
	}
}

func TestActivationTouchesOnlyThatIdentityStore(t *testing.T) {
	auth := &fakeAuthority{}
	store := newRecordingStore()
	tr := newTracker(auth, store)
	defer tr.Shutdown()

	tr.ActivateIdentity(context.Background(), "u2")
	waitFor(t, func() bool { return tr.Session().Verified }, "reconcile never applied")

	for _, id := range store.touchedIdentities() {
		if id != "u2" {
			t.Fatalf("store touched for %q while operating on u2", id)
		}
	}
}

func TestClockOutStopsTicking(t *testing.T) {
	in := time.Now().UTC().Add(-time.Hour)
	auth := &fakeAuthority{status: domain.RemoteStatus{CheckInAt: &in}}
	tr := newTracker(auth, newRecordingStore())
	defer tr.Shutdown()

	tr.ActivateIdentity(context.Background(), "u1")
	waitFor(t, func() bool { return tr.Session().Running }, "session never became active")

	session, err := tr.ClockOut(context.Background())
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if session.State() != domain.StateClosed {
		t.Fatalf("session = %+v", session)
	}

	events, cancel := tr.Subscribe()
	defer cancel()
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventTick {
				t.Fatal("tick emitted after clock-out")
			}
		case <-timeout:
			return
		}
	}
}

func TestClockInFromTracker(t *testing.T) {
	auth := &fakeAuthority{}
	store := newRecordingStore()
	tr := newTracker(auth, store)
	defer tr.Shutdown()

	tr.ActivateIdentity(context.Background(), "u1")
	waitFor(t, func() bool { return tr.Session().Verified }, "reconcile never applied")

	session, err := tr.ClockIn(context.Background())
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if !session.Running || tr.Session().State() != domain.StateActive {
		t.Fatalf("session = %+v", tr.Session())
	}
	if snap, ok := store.snapshot("u1"); !ok || !snap.Running {
		t.Fatalf("snapshot = %+v", snap)
	}
}
