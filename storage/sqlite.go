package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"propscrape/models"
)

// SQLiteStore holds operational data beside the Postgres domain store:
// run bookkeeping, structured run logs, and per-page extraction traces
// kept for debugging selector drift.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		site_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		urls_found INTEGER,
		listings_created INTEGER,
		listings_updated INTEGER,
		listings_skipped INTEGER,
		errors_count INTEGER
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE TABLE IF NOT EXISTS extraction_traces (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		listing_url TEXT,
		fields_found INTEGER,
		trace JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS site_stats (
		site_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_runs INTEGER,
		success_rate REAL,
		avg_run_duration_sec INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_traces_url ON extraction_traces(listing_url, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (site_id, started_at, status, urls_found,
			listings_created, listings_updated, listings_skipped, errors_count)
		VALUES (?, ?, ?, 0, 0, 0, 0, 0)`,
		run.SiteID, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, urls_found = ?,
			listings_created = ?, listings_updated = ?, listings_skipped = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.URLsFound,
		run.ListingsCreated, run.ListingsUpdated, run.ListingsSkipped, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, site_id, started_at, finished_at, status, urls_found,
			listings_created, listings_updated, listings_skipped, errors_count
		FROM scrape_runs WHERE id = ?`, id)

	var run models.ScrapeRun
	err := row.Scan(&run.ID, &run.SiteID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.URLsFound, &run.ListingsCreated, &run.ListingsUpdated, &run.ListingsSkipped, &run.ErrorsCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

// SaveTrace keeps the full per-field strategy record for one page visit.
// Traces are diagnostic only; failures to store them never fail a scrape.
func (s *SQLiteStore) SaveTrace(runID *int64, trace *models.ExtractionTrace) error {
	_, err := s.db.Exec(`
		INSERT INTO extraction_traces (run_id, listing_url, fields_found, trace)
		VALUES (?, ?, ?, ?)`,
		runID, trace.URL, trace.FieldsFound(), []byte(trace.ToJSON()))
	return err
}

func (s *SQLiteStore) UpdateSiteStats(siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO site_stats (site_id, last_run_at, last_run_status, total_runs,
			success_rate, avg_run_duration_sec)
		SELECT
			?,
			(SELECT started_at FROM scrape_runs WHERE site_id = ? ORDER BY started_at DESC LIMIT 1),
			(SELECT status FROM scrape_runs WHERE site_id = ? ORDER BY started_at DESC LIMIT 1),
			(SELECT COUNT(*) FROM scrape_runs WHERE site_id = ?),
			(SELECT CAST(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) /
				NULLIF(COUNT(*), 0) FROM scrape_runs WHERE site_id = ?),
			(SELECT AVG(CAST((julianday(finished_at) - julianday(started_at)) * 86400 AS INTEGER))
				FROM scrape_runs WHERE site_id = ? AND finished_at IS NOT NULL)
		ON CONFLICT(site_id) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_run_status = excluded.last_run_status,
			total_runs = excluded.total_runs,
			success_rate = excluded.success_rate,
			avg_run_duration_sec = excluded.avg_run_duration_sec`,
		siteID, siteID, siteID, siteID, siteID, siteID)
	return err
}

func (s *SQLiteStore) GetLastRunTime(siteID string) (time.Time, error) {
	var lastRun time.Time
	err := s.db.QueryRow(`
		SELECT last_run_at FROM site_stats WHERE site_id = ?`, siteID).Scan(&lastRun)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return lastRun, err
}

// PruneTraces drops traces older than the given age so the ops database
// does not grow without bound.
func (s *SQLiteStore) PruneTraces(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM extraction_traces WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ResetAllData clears all operational tables.
func (s *SQLiteStore) ResetAllData() error {
	tables := []string{
		"scrape_logs",
		"scrape_runs",
		"extraction_traces",
		"site_stats",
	}

	for _, table := range tables {
		_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	return nil
}
