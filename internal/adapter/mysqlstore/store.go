package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"attendance-tracker/internal/domain"
)

// Store implements ports.SnapshotStore on a MySQL table with one row per
// identity.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func New(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("mysqlstore: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// Save upserts the identity's snapshot. Zero millis are stored as NULL.
func (s *Store) Save(ctx context.Context, identity string, snap domain.Snapshot) error {
	const q = `
INSERT INTO attendance_snapshots
  (identity, clock_in_ms, clock_out_ms, running, updated_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  clock_in_ms=VALUES(clock_in_ms),
  clock_out_ms=VALUES(clock_out_ms),
  running=VALUES(running),
  updated_at=VALUES(updated_at);
`
	var in, out interface{}
	if snap.ClockInMillis > 0 {
		in = snap.ClockInMillis
	}
	if snap.ClockOutMillis > 0 {
		out = snap.ClockOutMillis
	}
	_, err := s.db.ExecContext(ctx, q, identity, in, out, snap.Running, time.Now().UTC())
	return err
}

// Load reads the identity's snapshot. Absent rows and NULL timestamps read
// as empty; only infrastructure failures surface as errors, and callers
// treat those as "no snapshot" too.
func (s *Store) Load(ctx context.Context, identity string) (domain.Snapshot, bool, error) {
	const q = `SELECT clock_in_ms, clock_out_ms, running FROM attendance_snapshots WHERE identity = ?`
	var (
		in, out sql.NullInt64
		running bool
	)
	err := s.db.QueryRowContext(ctx, q, identity).Scan(&in, &out, &running)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	return domain.Snapshot{
		ClockInMillis:  in.Int64,
		ClockOutMillis: out.Int64,
		Running:        running,
	}, true, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error { return s.db.Close() }
