package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"propscrape/config"
	"propscrape/identity"
	"propscrape/page"
)

// BrowserHandler drives a real browser for sites that render listings
// client-side or hide data behind interaction (phone reveal buttons,
// lazy-loaded galleries).
type BrowserHandler struct {
	cfg         *config.SiteConfig
	pw          *playwright.Playwright
	context     playwright.BrowserContext
	mu          sync.Mutex
	initialized bool
}

func NewBrowserHandler(cfg *config.SiteConfig) *BrowserHandler {
	return &BrowserHandler{cfg: cfg}
}

func (h *BrowserHandler) ID() string {
	return h.cfg.ID
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	cwd, _ := os.Getwd()
	userDataDir := filepath.Join(cwd, "browser_data")
	h.context, err = h.pw.Chromium.LaunchPersistentContext(userDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	h.initialized = true
	return nil
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.context != nil {
		h.context.Close()
	}
	if h.pw != nil {
		h.pw.Stop()
	}
	h.initialized = false
}

// Discover walks the site's search results and collects canonical
// listing detail URLs, following pagination up to MaxSearchPages.
func (h *BrowserHandler) Discover(ctx context.Context) ([]string, error) {
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}

	pg, err := h.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer pg.Close()

	if _, err := pg.Goto(h.cfg.SearchURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, &page.LoadError{URL: h.cfg.SearchURL, Err: err}
	}

	h.humanDelay(2000, 4000)
	h.handleConsent(pg)

	seen := make(map[string]struct{})
	var urls []string

	for pageNum := 1; pageNum <= h.cfg.MaxSearchPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return urls, err
		}

		h.waitForCards(pg)
		for _, u := range h.collectDetailLinks(pg) {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}

		if pageNum == h.cfg.MaxSearchPages {
			break
		}
		if !h.clickNextPage(pg) {
			break
		}
		h.humanDelay(h.cfg.RateLimitMS, h.cfg.RateLimitMS*2)
	}

	return urls, nil
}

// Visit loads one detail page and hands it to the visitor. The page is
// closed when the visitor returns, so extracted values must not hold
// references into it.
func (h *BrowserHandler) Visit(ctx context.Context, rawURL string, visit VisitFunc) error {
	if err := h.ensureBrowser(); err != nil {
		return err
	}

	pg, err := h.context.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	defer pg.Close()

	if _, err := pg.Goto(rawURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return &page.LoadError{URL: rawURL, Err: err}
	}

	h.humanDelay(1000, 2000)
	h.handleConsent(pg)

	return visit(ctx, page.FromPlaywright(pg))
}

func (h *BrowserHandler) waitForCards(pg playwright.Page) {
	card := pg.Locator(h.cfg.Search.CardSelector).First()
	_ = card.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	})
}

func (h *BrowserHandler) collectDetailLinks(pg playwright.Page) []string {
	base, err := url.Parse(pg.URL())
	if err != nil {
		return nil
	}

	locators, err := pg.Locator(h.cfg.Search.DetailLinkSelector).All()
	if err != nil {
		return nil
	}

	var links []string
	for _, loc := range locators {
		href, err := loc.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		abs := resolveURL(base, href)
		if abs == "" {
			continue
		}
		canonical := identity.CanonicalURL(abs)
		if identity.ListingID(canonical) == "" {
			continue
		}
		links = append(links, canonical)
	}
	return links
}

func (h *BrowserHandler) clickNextPage(pg playwright.Page) bool {
	btn := pg.Locator(h.cfg.Search.NextPageSelector).First()
	visible, _ := btn.IsVisible()
	if !visible {
		return false
	}
	if disabled, _ := btn.GetAttribute("disabled"); disabled != "" {
		return false
	}
	if err := btn.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return false
	}
	return true
}

func (h *BrowserHandler) handleConsent(pg playwright.Page) {
	consentSelectors := []string{
		"button:has-text('Consent')",
		"button[id*='accept']",
		"button[class*='accept']",
		"button[class*='consent']",
		"#onetrust-accept-btn-handler",
		"button:has-text('Accept all')",
		"button:has-text('Accept All')",
		"button:has-text('I Accept')",
		"button:has-text('Agree')",
	}

	for _, selector := range consentSelectors {
		btn := pg.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			btn.Click()
			pg.WaitForTimeout(1000)
			break
		}
	}
}

func (h *BrowserHandler) humanDelay(minMs, maxMs int) {
	if maxMs <= minMs {
		time.Sleep(time.Duration(minMs) * time.Millisecond)
		return
	}
	delay := minMs + rand.Intn(maxMs-minMs)
	time.Sleep(time.Duration(delay) * time.Millisecond)
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
