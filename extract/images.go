package extract

import (
	"fmt"
	"strings"

	"propscrape/models"
	"propscrape/page"
)

// extractImages unions image URLs in priority order: machine-readable
// metadata, gallery/carousel elements, then generic image elements.
// Only absolute URLs on the site's known media hosts survive; duplicates
// are dropped by exact string match with first-seen order preserved.
func (e *Extractor) extractImages(p page.Page, trace *models.ExtractionTrace) []string {
	ft := models.FieldTrace{Field: "images"}

	seen := make(map[string]bool)
	urls := []string{}
	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || !strings.HasPrefix(src, "http") {
			return
		}
		if !containsAnyFold(src, e.cfg.MediaHosts) {
			return
		}
		if seen[src] || len(urls) >= e.cfg.MaxImages {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	}

	record := func(name string, before int) {
		added := len(urls) - before
		outcome := models.OutcomeMiss
		var detail string
		if added > 0 {
			outcome = models.OutcomeMatched
			detail = fmt.Sprintf("%d urls", added)
			if ft.MatchedBy == "" {
				ft.MatchedBy = name
			}
		}
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: name, Outcome: outcome, Detail: detail,
		})
	}

	before := len(urls)
	for _, el := range p.QueryAll("meta[property='og:image']") {
		if content, ok := el.Attribute("content"); ok {
			add(content)
		}
	}
	record("og-image-meta", before)

	before = len(urls)
	for _, selector := range e.cfg.GallerySelectors {
		for _, el := range p.QueryAll(selector) {
			add(imageSource(el))
		}
	}
	record("gallery", before)

	before = len(urls)
	for _, el := range p.QueryAll("img") {
		add(imageSource(el))
	}
	record("generic-img", before)

	ft.Found = len(urls) > 0
	trace.Record(ft)
	return urls
}

// imageSource prefers src but falls back to the lazy-load attribute.
func imageSource(el page.Element) string {
	if src, ok := el.Attribute("src"); ok {
		return src
	}
	if src, ok := el.Attribute("data-src"); ok {
		return src
	}
	return ""
}
