package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &SnapshotRecord{
			Symbol:       "XYZ",
			TakenAt:      base.Add(time.Duration(i) * time.Hour),
			SpotPrice:    100 + float64(i),
			MaxPain:      100,
			PutCallRatio: 1.2,
			ATMIV:        0.22,
			Contracts:    40,
		}
		if err := s.SaveSnapshot(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if rec.ID == 0 {
			t.Errorf("save %d: ID not assigned", i)
		}
	}

	got, err := s.History(ctx, "XYZ", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("history returned %d rows, want 2", len(got))
	}
	if !got[0].TakenAt.After(got[1].TakenAt) {
		t.Errorf("history not newest-first: %v then %v", got[0].TakenAt, got[1].TakenAt)
	}
	if got[0].SpotPrice != 102 {
		t.Errorf("newest spot = %v, want 102", got[0].SpotPrice)
	}
}

func TestSaveSnapshotReplacesSameTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	taken := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	first := &SnapshotRecord{Symbol: "XYZ", TakenAt: taken, SpotPrice: 100, Contracts: 10}
	second := &SnapshotRecord{Symbol: "XYZ", TakenAt: taken, SpotPrice: 101, Contracts: 12}
	if err := s.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.History(ctx, "XYZ", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("history returned %d rows, want 1 after replace", len(got))
	}
	if got[0].SpotPrice != 101 {
		t.Errorf("spot = %v, want the replacing row's 101", got[0].SpotPrice)
	}
}

func TestHistoryUnknownSymbol(t *testing.T) {
	s := newTestStore(t)
	got, err := s.History(context.Background(), "NOPE", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("history returned %d rows for unknown symbol, want 0", len(got))
	}
}
