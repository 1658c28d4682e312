package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"propscrape/config"
	"propscrape/httputil"
	"propscrape/page"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func newSearchServer(t *testing.T) *httptest.Server {
	t.Helper()
	page1 := loadFixture(t, "search_page_1.html")
	page2 := loadFixture(t, "search_page_2.html")

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search" && r.URL.Query().Get("page") == "2":
			w.Write(page2)
		case r.URL.Path == "/search":
			w.Write(page1)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testSiteConfig(searchURL string) *config.SiteConfig {
	cfg := &config.SiteConfig{
		ID:             "test",
		Name:           "Test Site",
		Handler:        "static",
		SearchURL:      searchURL,
		RateLimitMS:    1,
		MaxSearchPages: 5,
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestStaticHandlerDiscover(t *testing.T) {
	srv := newSearchServer(t)
	defer srv.Close()

	h := NewStaticHandler(testSiteConfig(srv.URL+"/search"), httputil.NewClients())

	urls, err := h.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	// Duplicates across query strings, fragments, and pages collapse to
	// one canonical URL each, in first-seen order.
	want := []string{
		srv.URL + "/properties/141234567",
		srv.URL + "/properties/141234568",
		srv.URL + "/properties/141234569",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v; want %v", urls, want)
	}
}

func TestStaticHandlerDiscoverRespectsPageLimit(t *testing.T) {
	srv := newSearchServer(t)
	defer srv.Close()

	cfg := testSiteConfig(srv.URL + "/search")
	cfg.MaxSearchPages = 1
	h := NewStaticHandler(cfg, httputil.NewClients())

	urls, err := h.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("urls = %v; want only the first page's two listings", urls)
	}
}

func TestStaticHandlerVisit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/properties/141234567" {
			w.Write([]byte(`<html><body><h1>Lovely Road, London, SE1</h1></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	h := NewStaticHandler(testSiteConfig(srv.URL+"/search"), httputil.NewClients())

	visited := false
	err := h.Visit(context.Background(), srv.URL+"/properties/141234567", func(_ context.Context, p page.Page) error {
		visited = true
		if got := p.URL(); got != srv.URL+"/properties/141234567" {
			t.Errorf("page url = %q", got)
		}
		els := p.QueryAll("h1")
		if len(els) != 1 || els[0].Text() != "Lovely Road, London, SE1" {
			t.Errorf("unexpected h1 elements: %v", els)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("visit failed: %v", err)
	}
	if !visited {
		t.Fatal("visit callback never ran")
	}
}

func TestStaticHandlerVisitLoadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := NewStaticHandler(testSiteConfig(srv.URL+"/search"), httputil.NewClients())

	err := h.Visit(context.Background(), srv.URL+"/properties/999", func(_ context.Context, _ page.Page) error {
		t.Fatal("visit callback must not run on a failed load")
		return nil
	})

	var loadErr *page.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.URL != srv.URL+"/properties/999" {
		t.Errorf("load error url = %q", loadErr.URL)
	}
}
