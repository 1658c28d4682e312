package services

import (
	"context"
	"fmt"
	"log"

	"propscrape/extract"
	"propscrape/identity"
	"propscrape/models"
	"propscrape/page"
	"propscrape/storage"
)

// ListingStore is the slice of the persistence store the service drives.
type ListingStore interface {
	MarkListingScraping(ctx context.Context, listingURL string) error
	MarkListingFailed(ctx context.Context, listingURL, message string) error
	UpsertListing(ctx context.Context, l *models.ExtractedListing) (bool, error)
}

// ListingService runs one page visit end to end: extraction, trace
// capture, and the atomic upsert. It is idempotent; processing the same
// page twice converges on one identical row.
type ListingService struct {
	store     ListingStore
	ops       *storage.SQLiteStore
	extractor *extract.Extractor
	siteID    string
}

func NewListingService(store ListingStore, ops *storage.SQLiteStore, extractor *extract.Extractor, siteID string) *ListingService {
	return &ListingService{
		store:     store,
		ops:       ops,
		extractor: extractor,
		siteID:    siteID,
	}
}

// ProcessResult contains the outcome of processing one listing page.
type ProcessResult struct {
	ListingURL  string
	Created     bool
	Updated     bool
	Skipped     bool
	FieldsFound int
}

// ProcessListing extracts a loaded listing page and persists the record.
// A URL that does not carry a listing identifier is skipped rather than
// treated as an error; search pages and ads land here too.
func (s *ListingService) ProcessListing(ctx context.Context, p page.Page, runID *int64) (*ProcessResult, error) {
	listingURL := identity.CanonicalURL(p.URL())
	result := &ProcessResult{ListingURL: listingURL}

	if identity.ListingID(listingURL) == "" {
		result.Skipped = true
		return result, nil
	}

	if err := s.store.MarkListingScraping(ctx, listingURL); err != nil {
		log.Printf("Warning: failed to mark listing scraping: %v", err)
	}

	listing, trace := s.extractor.Extract(p)
	result.FieldsFound = trace.FieldsFound()

	if s.ops != nil {
		if err := s.ops.SaveTrace(runID, trace); err != nil {
			log.Printf("Warning: failed to save extraction trace: %v", err)
		}
	}

	created, err := s.store.UpsertListing(ctx, listing)
	if err != nil {
		// The row was moved to scraping above; every visit must still
		// end in a terminal status. UPDATE only, so a listing that was
		// never stored stays absent.
		if markErr := s.store.MarkListingFailed(ctx, listingURL, err.Error()); markErr != nil {
			log.Printf("Warning: failed to mark listing failed: %v", markErr)
		}
		return nil, fmt.Errorf("upsert listing: %w", err)
	}

	result.Created = created
	result.Updated = !created
	return result, nil
}

// MarkFailed records a failed page visit. Only an existing row is
// touched; a page that never loaded must not create a listing.
func (s *ListingService) MarkFailed(ctx context.Context, rawURL string, cause error, runID *int64) {
	listingURL := identity.CanonicalURL(rawURL)
	if err := s.store.MarkListingFailed(ctx, listingURL, cause.Error()); err != nil {
		log.Printf("Warning: failed to mark listing failed: %v", err)
	}
	if s.ops != nil {
		msg := fmt.Sprintf("scrape failed for %s: %v", listingURL, cause)
		if err := s.ops.Log(runID, models.LogLevelError, msg, s.siteID); err != nil {
			log.Printf("Warning: failed to write scrape log: %v", err)
		}
	}
}

// ProcessStats tracks aggregate statistics for a scrape run.
type ProcessStats struct {
	URLsFound int
	Created   int
	Updated   int
	Skipped   int
	Errors    int
}

// Aggregate adds a ProcessResult to the stats.
func (s *ProcessStats) Aggregate(r *ProcessResult) {
	switch {
	case r.Created:
		s.Created++
	case r.Updated:
		s.Updated++
	case r.Skipped:
		s.Skipped++
	}
}

// ApplyTo copies the totals onto a run record.
func (s *ProcessStats) ApplyTo(run *models.ScrapeRun) {
	run.URLsFound = s.URLsFound
	run.ListingsCreated = s.Created
	run.ListingsUpdated = s.Updated
	run.ListingsSkipped = s.Skipped
	run.ErrorsCount = s.Errors
}
