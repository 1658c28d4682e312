package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"propscrape/config"
	"propscrape/httputil"
	"propscrape/identity"
	"propscrape/page"
)

// StaticHandler fetches pages over plain HTTP for sites that render
// listings server-side. No interaction is possible, so strategies that
// need a click (phone reveal) fall through to their text fallbacks.
type StaticHandler struct {
	cfg     *config.SiteConfig
	clients *httputil.Clients
}

func NewStaticHandler(cfg *config.SiteConfig, clients *httputil.Clients) *StaticHandler {
	return &StaticHandler{cfg: cfg, clients: clients}
}

func (h *StaticHandler) ID() string {
	return h.cfg.ID
}

func (h *StaticHandler) Close() {}

func (h *StaticHandler) Discover(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var urls []string

	current := h.cfg.SearchURL
	for pageNum := 1; pageNum <= h.cfg.MaxSearchPages && current != ""; pageNum++ {
		if err := ctx.Err(); err != nil {
			return urls, err
		}

		doc, finalURL, err := h.fetchDocument(ctx, current)
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			break
		}

		base, err := url.Parse(finalURL)
		if err != nil {
			break
		}

		doc.Find(h.cfg.Search.DetailLinkSelector).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok || href == "" {
				return
			}
			abs := resolveURL(base, href)
			if abs == "" {
				return
			}
			canonical := identity.CanonicalURL(abs)
			if identity.ListingID(canonical) == "" {
				return
			}
			if _, dup := seen[canonical]; dup {
				return
			}
			seen[canonical] = struct{}{}
			urls = append(urls, canonical)
		})

		current = h.nextPageURL(doc, base)
		if current != "" {
			time.Sleep(time.Duration(h.cfg.RateLimitMS) * time.Millisecond)
		}
	}

	return urls, nil
}

func (h *StaticHandler) Visit(ctx context.Context, rawURL string, visit VisitFunc) error {
	req, err := httputil.BrowserRequest(ctx, rawURL)
	if err != nil {
		return err
	}

	resp, err := h.clients.Scraping.Do(req)
	if err != nil {
		return &page.LoadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &page.LoadError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	p, err := page.NewStaticPage(resp.Request.URL.String(), resp.Body)
	if err != nil {
		return &page.LoadError{URL: rawURL, Err: err}
	}

	return visit(ctx, p)
}

func (h *StaticHandler) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	req, err := httputil.BrowserRequest(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}

	resp, err := h.clients.Scraping.Do(req)
	if err != nil {
		return nil, "", &page.LoadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &page.LoadError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return doc, resp.Request.URL.String(), nil
}

func (h *StaticHandler) nextPageURL(doc *goquery.Document, base *url.URL) string {
	href, ok := doc.Find(h.cfg.Search.NextPageSelector).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return resolveURL(base, href)
}
