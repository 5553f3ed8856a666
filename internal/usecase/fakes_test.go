package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"attendance-tracker/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuthority struct {
	mu     sync.Mutex
	status domain.RemoteStatus
	// statusByIdentity overrides status for specific identities.
	statusByIdentity map[string]domain.RemoteStatus
	statusErr        error
	clockInErr  error
	clockOutErr error
	// statusGate, when non-nil, blocks Status until closed. With a
	// non-empty gateIdentity only that identity's reads block.
	statusGate   chan struct{}
	gateIdentity string
	statusCalls  int
}

func (f *fakeAuthority) Status(ctx context.Context, identity string) (domain.RemoteStatus, error) {
	f.mu.Lock()
	gate := f.statusGate
	if f.gateIdentity != "" && identity != f.gateIdentity {
		gate = nil
	}
	f.statusCalls++
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.RemoteStatus{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.statusByIdentity[identity]; ok {
		return st, f.statusErr
	}
	return f.status, f.statusErr
}

func (f *fakeAuthority) ClockIn(ctx context.Context, identity string, pos domain.Position, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clockInErr
}

func (f *fakeAuthority) ClockOut(ctx context.Context, identity string, pos domain.Position, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clockOutErr
}

// recordingStore is an in-memory SnapshotStore that records which
// identities were touched, for the isolation assertions.
type recordingStore struct {
	mu      sync.Mutex
	snaps   map[string]domain.Snapshot
	touched []string
	loadErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{snaps: make(map[string]domain.Snapshot)}
}

func (s *recordingStore) Save(ctx context.Context, identity string, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, identity)
	s.snaps[identity] = snap
	return nil
}

func (s *recordingStore) Load(ctx context.Context, identity string) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, identity)
	if s.loadErr != nil {
		return domain.Snapshot{}, false, s.loadErr
	}
	snap, ok := s.snaps[identity]
	return snap, ok, nil
}

func (s *recordingStore) snapshot(identity string) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[identity]
	return snap, ok
}

func (s *recordingStore) touchedIdentities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.touched...)
}

type fakeSensor struct {
	pos domain.Position
	err error
}

func (f *fakeSensor) Position(ctx context.Context) (domain.Position, error) {
	return f.pos, f.err
}

type recordedFailure struct {
	kind    domain.Kind
	message string
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []recordedFailure
}

func (n *recordingNotifier) Success(identity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Failure(identity string, kind domain.Kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, recordedFailure{kind: kind, message: message})
}

type staticConfirmer struct {
	answer bool
	calls  int
}

func (c *staticConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.calls++
	return c.answer, nil
}
