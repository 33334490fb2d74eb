package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jimezsa/heyjobs/internal/models"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "heyjobs.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	return s, dbPath
}

func TestStore_SaveAllRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	records := []models.JobRecord{
		{UID: "1e61e323-1e90-4b0c-a4cf-949ca74bbd7a", Title: "A really great job!"},
		{UID: "1e61e323-1e90-4b0c-a4cf-949ca74bbd7b", Title: "A really bad job!"},
	}

	report := s.SaveAll(ctx, records)
	if len(report.Failed) != 0 {
		t.Fatalf("SaveAll() failures = %+v", report.Failed)
	}
	if len(report.Saved) != 2 {
		t.Fatalf("SaveAll() saved = %d, want 2", len(report.Saved))
	}
	for _, saved := range report.Saved {
		if saved.ID == 0 {
			t.Errorf("saved record %q has zero id", saved.UID)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff(report.Saved, got); diff != "" {
		t.Fatalf("List() mismatch (-saved +listed):\n%s", diff)
	}
	for i := range records {
		if got[i].UID != records[i].UID || got[i].Title != records[i].Title {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestStore_SaveAllIsolatesFailures(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	records := []models.JobRecord{
		{UID: "good-1", Title: "First"},
		{UID: "", Title: "No uid"},
		{UID: "too-long", Title: strings.Repeat("x", 501)},
		{UID: "good-2", Title: "Second"},
	}

	report := s.SaveAll(ctx, records)
	if len(report.Saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(report.Saved))
	}
	if len(report.Failed) != 2 {
		t.Fatalf("failed = %d, want 2", len(report.Failed))
	}
	if !report.Partial() || report.Total() != 4 {
		t.Fatalf("unexpected report shape: partial=%v total=%d", report.Partial(), report.Total())
	}
	for _, failure := range report.Failed {
		if failure.Err == nil || failure.Reason == "" {
			t.Errorf("failure missing cause: %+v", failure)
		}
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Count() = %d, want 2", count)
	}
}

func TestStore_ResetDiscardsRecords(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	s.SaveAll(ctx, []models.JobRecord{{UID: "abc", Title: "Kept until reset"}})
	if count, _ := s.Count(ctx); count != 1 {
		t.Fatalf("Count() before reset = %d, want 1", count)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected reset to discard records, got %+v", got)
	}

	// Ids restart because the table itself was recreated.
	report := s.SaveAll(ctx, []models.JobRecord{{UID: "def", Title: "After reset"}})
	if len(report.Saved) != 1 || report.Saved[0].ID != 1 {
		t.Fatalf("unexpected id after reset: %+v", report.Saved)
	}
}

func TestStore_ResetPersistsAcrossReopen(t *testing.T) {
	s, dbPath := setupTestStore(t)
	ctx := context.Background()

	s.SaveAll(ctx, []models.JobRecord{{UID: "abc", Title: "Durable"}})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	if count, _ := reopened.Count(ctx); count != 1 {
		t.Fatalf("Count() after reopen = %d, want 1", count)
	}
	if err := reopened.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if count, _ := reopened.Count(ctx); count != 0 {
		t.Fatalf("Count() after second run reset = %d, want 0", count)
	}
}

func TestStore_LockPreventsConcurrentOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heyjobs.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := Open(dbPath); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open() error = %v, want ErrLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(dbPath + lockSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file still present after Close: %v", err)
	}

	again, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() after Close error = %v", err)
	}
	again.Close()
}

func TestStore_MemoryPathSkipsLock(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	report := s.SaveAll(ctx, []models.JobRecord{{UID: "mem", Title: "In memory"}})
	if len(report.Saved) != 1 {
		t.Fatalf("SaveAll() = %+v", report)
	}
}

func TestStore_ListWithoutSchema(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, err := s.List(context.Background()); err == nil {
		t.Fatalf("expected error listing before Reset")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
