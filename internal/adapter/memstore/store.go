package memstore

import (
	"context"
	"sync"

	"attendance-tracker/internal/domain"
)

// Store is the in-process ports.SnapshotStore, used in dev mode and tests.
type Store struct {
	mu    sync.RWMutex
	snaps map[string]domain.Snapshot
}

func New() *Store {
	return &Store{snaps: make(map[string]domain.Snapshot)}
}

func (s *Store) Save(ctx context.Context, identity string, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[identity] = snap
	return nil
}

func (s *Store) Load(ctx context.Context, identity string) (domain.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[identity]
	return snap, ok, nil
}
