package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, Record{
		Kind: KindCalculation, Jurisdiction: "co",
		GroupKey: "newspapers", GroupName: "Newspapers",
		WeightLbs: 1000, FinalPayable: 11.39,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" || first.CreatedAt == "" {
		t.Fatalf("expected generated id and timestamp, got %+v", first)
	}

	second, err := s.Append(ctx, Record{
		Kind: KindExport, Jurisdiction: "co",
		GroupKey: "newspapers", FinalPayable: 11.39,
		Filename: "epr-estimate_co_newspapers_2026-03-14.pdf",
	})
	if err != nil {
		t.Fatalf("append export: %v", err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", recent)
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	s := openTestStore(t)
	recent, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected empty store, got %d", len(recent))
	}
}
