package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tsawler/outliner/model"
)

func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunRoundTrip(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	run, err := l.StartRun(ctx, "models/forest.json", 4)
	if err != nil {
		t.Fatalf("StartRun() failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("StartRun() returned empty ID")
	}

	docs := []Document{
		{
			RunID:      run.ID,
			Path:       "in/a.pdf",
			OutputPath: "out/a.json",
			Status:     StatusOK,
			Title:      "Annual Report",
			Language:   "en",
			PageCount:  3,
			Duration:   1500 * time.Millisecond,
			Headings: []model.Heading{
				{Level: model.LevelH1, Text: "Introduction", Page: 1},
				{Level: model.LevelH2, Text: "Scope", Page: 2},
			},
		},
		{RunID: run.ID, Path: "in/b.pdf", Status: StatusEmpty},
		{RunID: run.ID, Path: "in/c.pdf", Status: StatusFailed, Error: "failed to open PDF"},
	}
	for _, d := range docs {
		if _, err := l.RecordDocument(ctx, d); err != nil {
			t.Fatalf("RecordDocument(%s) failed: %v", d.Path, err)
		}
	}

	if err := l.FinishRun(ctx, run.ID); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	got, err := l.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Model != "models/forest.json" || got.Workers != 4 {
		t.Errorf("run = %+v", got)
	}
	if got.DocumentCount != 3 || got.FailedCount != 1 {
		t.Errorf("counts = %d/%d, want 3/1", got.DocumentCount, got.FailedCount)
	}
	if !got.Finished() {
		t.Error("run should be finished")
	}

	stored, err := l.Documents(ctx, run.ID)
	if err != nil {
		t.Fatalf("Documents() failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("got %d documents, want 3", len(stored))
	}

	first := stored[0]
	if first.Title != "Annual Report" || first.Language != "en" || first.Duration != 1500*time.Millisecond {
		t.Errorf("document = %+v", first)
	}
	if len(first.Headings) != 2 || first.Headings[1].Text != "Scope" || first.Headings[1].Level != model.LevelH2 {
		t.Errorf("headings = %+v", first.Headings)
	}
	if stored[2].Status != StatusFailed || stored[2].Error != "failed to open PDF" {
		t.Errorf("failed document = %+v", stored[2])
	}
}

func TestListRuns(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := l.StartRun(ctx, "", 1)
		if err != nil {
			t.Fatalf("StartRun() failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := l.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] {
		t.Errorf("most recent run = %s, want %s", runs[0].ID, ids[2])
	}
	if runs[0].Finished() {
		t.Error("unfinished run reported as finished")
	}

	all, err := l.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d runs, want 3", len(all))
	}
}

func TestUnknownRun(t *testing.T) {
	l := setupTestLedger(t)
	ctx := context.Background()

	if err := l.FinishRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun() error = %v, want ErrRunNotFound", err)
	}
	if _, err := l.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
	if _, err := l.RecordDocument(ctx, Document{RunID: "missing", Path: "x.pdf", Status: StatusOK}); err == nil {
		t.Error("RecordDocument() should fail the foreign key check")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	run, err := l.StartRun(ctx, "", 1)
	if err != nil {
		t.Fatalf("StartRun() failed: %v", err)
	}
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l.Close()

	if _, err := l.GetRun(ctx, run.ID); err != nil {
		t.Errorf("GetRun() after reopen failed: %v", err)
	}
	if l.Path() != path {
		t.Errorf("Path() = %s", l.Path())
	}
}
