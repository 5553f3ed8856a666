package memstore

import (
	"context"
	"testing"

	"attendance-tracker/internal/domain"
)

func TestLoadAbsentIsEmpty(t *testing.T) {
	s := New()
	snap, ok, err := s.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || snap != (domain.Snapshot{}) {
		t.Fatalf("expected empty, got ok=%v snap=%+v", ok, snap)
	}
}

func TestSaveLoadIsolatedPerIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := domain.Snapshot{ClockInMillis: 1000, Running: true}
	b := domain.Snapshot{ClockInMillis: 2000, ClockOutMillis: 3000}
	if err := s.Save(ctx, "u1", a); err != nil {
		t.Fatalf("Save u1: %v", err)
	}
	if err := s.Save(ctx, "u2", b); err != nil {
		t.Fatalf("Save u2: %v", err)
	}

	got, ok, _ := s.Load(ctx, "u1")
	if !ok || got != a {
		t.Fatalf("u1 snapshot = %+v, want %+v", got, a)
	}
	got, ok, _ = s.Load(ctx, "u2")
	if !ok || got != b {
		t.Fatalf("u2 snapshot = %+v, want %+v", got, b)
	}
}

func TestSaveOverwritesFullSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Save(ctx, "u1", domain.Snapshot{ClockInMillis: 1000, Running: true})
	_ = s.Save(ctx, "u1", domain.Snapshot{ClockInMillis: 1000, ClockOutMillis: 5000})

	got, _, _ := s.Load(ctx, "u1")
	if got.Running || got.ClockOutMillis != 5000 {
		t.Fatalf("snapshot not overwritten: %+v", got)
	}
}
