package scraper

import (
	"context"

	"propscrape/config"
	"propscrape/httputil"
	"propscrape/page"
)

// VisitFunc processes one successfully loaded listing page.
type VisitFunc func(ctx context.Context, p page.Page) error

// Handler crawls one site: it discovers listing detail URLs from search
// results and loads individual detail pages on demand. A Visit that
// cannot load its page returns a page.LoadError so callers can tell
// "page unavailable" apart from processing failures.
type Handler interface {
	ID() string
	Discover(ctx context.Context) ([]string, error)
	Visit(ctx context.Context, rawURL string, visit VisitFunc) error
	Close()
}

func NewHandler(siteCfg *config.SiteConfig, clients *httputil.Clients) Handler {
	switch siteCfg.Handler {
	case "static":
		return NewStaticHandler(siteCfg, clients)
	case "browser":
		return NewBrowserHandler(siteCfg)
	default:
		return NewBrowserHandler(siteCfg)
	}
}
