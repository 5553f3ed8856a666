package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"attendance-tracker/internal/domain"
)

const keyPrefix = "attendance:snapshot:"

// Store implements ports.SnapshotStore on Redis, one JSON value per
// identity. Entries are not expired: stale snapshots are simply superseded
// by the next successful reconciliation.
type Store struct {
	cli *redis.Client
	log *slog.Logger
}

func New(ctx context.Context, url string, log *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return &Store{cli: cli, log: log}, nil
}

func (s *Store) Close() error { return s.cli.Close() }

func (s *Store) Save(ctx context.Context, identity string, snap domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, keyPrefix+identity, b, 0).Err()
}

// Load reads the identity's snapshot. A missing key or an undecodable value
// reads as empty.
func (s *Store) Load(ctx context.Context, identity string) (domain.Snapshot, bool, error) {
	val, err := s.cli.Get(ctx, keyPrefix+identity).Result()
	if err == redis.Nil {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		s.log.Debug("discarding corrupt snapshot", slog.String("identity", identity))
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}
