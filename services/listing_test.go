package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"propscrape/config"
	"propscrape/extract"
	"propscrape/models"
	"propscrape/page"
)

type stubListingStore struct {
	scraping  []string
	failed    map[string]string
	upserted  []*models.ExtractedListing
	upsertErr error
	created   bool
}

func (s *stubListingStore) MarkListingScraping(_ context.Context, listingURL string) error {
	s.scraping = append(s.scraping, listingURL)
	return nil
}

func (s *stubListingStore) MarkListingFailed(_ context.Context, listingURL, message string) error {
	if s.failed == nil {
		s.failed = make(map[string]string)
	}
	s.failed[listingURL] = message
	return nil
}

func (s *stubListingStore) UpsertListing(_ context.Context, l *models.ExtractedListing) (bool, error) {
	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	s.upserted = append(s.upserted, l)
	return s.created, nil
}

func newTestService(store ListingStore) *ListingService {
	site := &config.SiteConfig{ID: "test"}
	site.ApplyDefaults()
	return NewListingService(store, nil, extract.New(site.Extraction), "test")
}

func mustPage(t *testing.T, url, markup string) page.Page {
	t.Helper()
	p, err := page.NewStaticPageFromHTML(url, markup)
	if err != nil {
		t.Fatalf("failed to build page: %v", err)
	}
	return p
}

func TestProcessListingSkipsNonListingURL(t *testing.T) {
	store := &stubListingStore{}
	svc := newTestService(store)
	p := mustPage(t, "https://example.com/property-for-sale/find.html", "<html><body></body></html>")

	result, err := svc.ProcessListing(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !result.Skipped {
		t.Error("expected result.Skipped")
	}
	if len(store.scraping) != 0 || len(store.upserted) != 0 {
		t.Errorf("store touched for a non-listing URL: %+v", store)
	}
}

func TestProcessListingCreates(t *testing.T) {
	store := &stubListingStore{created: true}
	svc := newTestService(store)
	p := mustPage(t, "https://example.com/properties/123?channel=BUY",
		"<html><body><h1>Lovely Road</h1></body></html>")

	result, err := svc.ProcessListing(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !result.Created || result.Updated || result.Skipped {
		t.Errorf("result = %+v; want created only", result)
	}

	wantURL := "https://example.com/properties/123"
	if len(store.scraping) != 1 || store.scraping[0] != wantURL {
		t.Errorf("scraping marks = %v; want [%s]", store.scraping, wantURL)
	}
	if len(store.upserted) != 1 || store.upserted[0].ListingURL != wantURL {
		t.Errorf("upserted = %v; want one record for %s", store.upserted, wantURL)
	}
}

func TestProcessListingMarksFailedWhenPersistFails(t *testing.T) {
	store := &stubListingStore{upsertErr: errors.New("commit: connection reset")}
	svc := newTestService(store)
	p := mustPage(t, "https://example.com/properties/123",
		"<html><body><h1>Lovely Road</h1></body></html>")

	_, err := svc.ProcessListing(context.Background(), p, nil)
	if err == nil {
		t.Fatal("expected an error from the failed upsert")
	}

	// The row was marked scraping first; a persistence failure must
	// still land it in a terminal status.
	msg, ok := store.failed["https://example.com/properties/123"]
	if !ok {
		t.Fatalf("listing never marked failed; failed = %v", store.failed)
	}
	if !strings.Contains(msg, "connection reset") {
		t.Errorf("failure message = %q; want the upsert cause", msg)
	}
}

func TestProcessStatsAggregate(t *testing.T) {
	var stats ProcessStats
	results := []*ProcessResult{
		{Created: true},
		{Created: true},
		{Updated: true},
		{Skipped: true},
		{}, // no outcome set, nothing counted
	}
	for _, r := range results {
		stats.Aggregate(r)
	}

	if stats.Created != 2 {
		t.Errorf("Created = %d, want 2", stats.Created)
	}
	if stats.Updated != 1 {
		t.Errorf("Updated = %d, want 1", stats.Updated)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestProcessStatsApplyTo(t *testing.T) {
	stats := ProcessStats{URLsFound: 12, Created: 3, Updated: 6, Skipped: 2, Errors: 1}
	run := &models.ScrapeRun{}
	stats.ApplyTo(run)

	if run.URLsFound != 12 || run.ListingsCreated != 3 || run.ListingsUpdated != 6 ||
		run.ListingsSkipped != 2 || run.ErrorsCount != 1 {
		t.Errorf("run counters = %+v, want stats %+v", run, stats)
	}
}
