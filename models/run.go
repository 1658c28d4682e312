package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID              int64      `json:"id" db:"id"`
	SiteID          string     `json:"site_id" db:"site_id"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	URLsFound       int        `json:"urls_found" db:"urls_found"`
	ListingsCreated int        `json:"listings_created" db:"listings_created"`
	ListingsUpdated int        `json:"listings_updated" db:"listings_updated"`
	ListingsSkipped int        `json:"listings_skipped" db:"listings_skipped"`
	ErrorsCount     int        `json:"errors_count" db:"errors_count"`
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type ScrapeLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     *int64    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	SiteID    string    `json:"site_id" db:"site_id"`
}
