package httputil

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

type Clients struct {
	Scraping *http.Client // target listing sites
	Media    *http.Client // image downloads for mirroring
}

func NewClients() *Clients {
	// HTTP/1.1 only; some listing sites fingerprint Go's HTTP/2 handshake.
	transport := &http.Transport{
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}

	scraping := &http.Client{
		Timeout:   15 * time.Second,
		Transport: transport,
	}

	return &Clients{
		Scraping: scraping,
		Media:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BrowserRequest builds a GET request with browser-shaped headers.
func BrowserRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	return req, nil
}
