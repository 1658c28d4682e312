package storage

import (
	"path/filepath"
	"testing"
	"time"

	"propscrape/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run := &models.ScrapeRun{
		SiteID:    "rightmove",
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}

	id, err := store.CreateRun(run)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	run.ID = id

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.URLsFound = 10
	run.ListingsCreated = 4
	run.ListingsUpdated = 5
	run.ListingsSkipped = 1

	if err := store.UpdateRun(run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	got, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil {
		t.Fatal("expected a run row")
	}
	if got.Status != models.RunStatusCompleted {
		t.Errorf("status = %s; want completed", got.Status)
	}
	if got.URLsFound != 10 || got.ListingsCreated != 4 || got.ListingsUpdated != 5 || got.ListingsSkipped != 1 {
		t.Errorf("counters = %d/%d/%d/%d", got.URLsFound, got.ListingsCreated, got.ListingsUpdated, got.ListingsSkipped)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}
}

func TestGetRunMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetRun(42)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing run, got %+v", got)
	}
}

func TestSaveTraceAndLog(t *testing.T) {
	store := newTestStore(t)

	runID := int64(1)
	trace := &models.ExtractionTrace{
		URL: "https://www.rightmove.co.uk/properties/141234567",
		Fields: []models.FieldTrace{
			{Field: "price", Found: true, MatchedBy: "selector-markers"},
			{Field: "size", Found: false},
		},
	}

	if err := store.SaveTrace(&runID, trace); err != nil {
		t.Fatalf("save trace: %v", err)
	}
	if err := store.Log(&runID, models.LogLevelInfo, "processed listing", "rightmove"); err != nil {
		t.Fatalf("log: %v", err)
	}

	var count, found int
	row := store.db.QueryRow(`SELECT COUNT(*), COALESCE(MAX(fields_found), 0) FROM extraction_traces`)
	if err := row.Scan(&count, &found); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 || found != 1 {
		t.Errorf("traces = %d with fields_found %d; want 1 and 1", count, found)
	}
}

func TestResetAllData(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.CreateRun(&models.ScrapeRun{SiteID: "rightmove", StartedAt: time.Now(), Status: models.RunStatusRunning}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.ResetAllData(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := store.GetRun(1)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got != nil {
		t.Error("expected runs to be cleared")
	}
}
