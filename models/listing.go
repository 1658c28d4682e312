package models

import (
	"time"

	"github.com/google/uuid"
)

type ScrapingStatus string

const (
	StatusPending   ScrapingStatus = "pending"
	StatusScraping  ScrapingStatus = "scraping"
	StatusCompleted ScrapingStatus = "completed"
	StatusFailed    ScrapingStatus = "failed"
)

// ExtractedListing is the canonical record built from one page visit.
// String fields default to "" and collection fields to an empty slice when
// no strategy matched; optional scalars stay nil so "not found" is
// distinguishable from a real zero.
type ExtractedListing struct {
	Identifier   string     `json:"identifier"`
	ListingURL   string     `json:"listing_url"`
	Title        string     `json:"title"`
	Price        string     `json:"price"`
	PriceNumeric *float64   `json:"price_numeric"`
	PropertyType string     `json:"property_type"`
	Bedrooms     *int       `json:"bedrooms"`
	Bathrooms    *int       `json:"bathrooms"`
	Size         string     `json:"size"`
	Description  string     `json:"description"`
	KeyFeatures  []string   `json:"key_features"`
	DateAdded    *time.Time `json:"date_added"`
	AgentPhone   *string    `json:"agent_phone"`
	ImageURLs    []string   `json:"image_urls"`
}

// PersistedListing mirrors the durable row, keyed uniquely by listing URL.
type PersistedListing struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Identifier     string         `json:"identifier" db:"external_id"`
	ListingURL     string         `json:"listing_url" db:"listing_url"`
	Title          string         `json:"title" db:"title"`
	Price          string         `json:"price" db:"price"`
	PriceNumeric   *float64       `json:"price_numeric" db:"price_numeric"`
	PropertyType   string         `json:"property_type" db:"property_type"`
	Bedrooms       *int           `json:"bedrooms" db:"bedrooms"`
	Bathrooms      *int           `json:"bathrooms" db:"bathrooms"`
	Size           string         `json:"size" db:"size"`
	Description    string         `json:"description" db:"description"`
	KeyFeatures    []string       `json:"key_features" db:"key_features"`
	DateAdded      *time.Time     `json:"date_added" db:"date_added"`
	AgentPhone     *string        `json:"agent_phone" db:"agent_phone"`
	ScrapingStatus ScrapingStatus `json:"scraping_status" db:"scraping_status"`
	ScrapingError  string         `json:"scraping_error" db:"scraping_error"`
	FirstSeenAt    time.Time      `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt     time.Time      `json:"last_seen_at" db:"last_seen_at"`
}

type MirrorStatus string

const (
	MirrorStatusPending  MirrorStatus = "pending"
	MirrorStatusUploaded MirrorStatus = "uploaded"
	MirrorStatusFailed   MirrorStatus = "failed"
)

// ListingImage is one entry in a listing's owned, ordered image set.
// Order is a dense 0-based sequence; the image at order 0 is primary.
type ListingImage struct {
	ID             int64        `json:"id" db:"id"`
	ListingID      uuid.UUID    `json:"listing_id" db:"listing_id"`
	ImageURL       string       `json:"image_url" db:"image_url"`
	ImageOrder     int          `json:"image_order" db:"image_order"`
	IsPrimary      bool         `json:"is_primary" db:"is_primary"`
	ImageTitle     string       `json:"image_title" db:"image_title"`
	MirrorStatus   MirrorStatus `json:"mirror_status" db:"mirror_status"`
	MirrorAttempts int          `json:"mirror_attempts" db:"mirror_attempts"`
	S3Key          *string      `json:"s3_key" db:"s3_key"`
	ContentHash    *string      `json:"content_hash" db:"content_hash"`
	ScrapedAt      time.Time    `json:"scraped_at" db:"scraped_at"`
}
