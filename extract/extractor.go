package extract

import (
	"regexp"
	"strings"
	"time"

	"propscrape/config"
	"propscrape/identity"
	"propscrape/models"
	"propscrape/page"
)

// Extractor turns one loaded listing page into a canonical record plus a
// per-record trace of which strategy produced which field. It holds no
// mutable state, so a single Extractor is safe to share across workers
// as long as each worker owns its own page session.
type Extractor struct {
	cfg config.ExtractionConfig

	currencyRe *regexp.Regexp
	bedsRe     *regexp.Regexp
	bathsRe    *regexp.Regexp
	sizeRe     *regexp.Regexp
	dateRe     *regexp.Regexp
	phoneRe    *regexp.Regexp
}

func New(cfg config.ExtractionConfig) *Extractor {
	symbol := regexp.QuoteMeta(cfg.CurrencySymbol)
	return &Extractor{
		cfg:        cfg,
		currencyRe: regexp.MustCompile(symbol + `\s*[\d,]+(?:\.\d{1,2})?`),
		bedsRe:     regexp.MustCompile(`(?i)(\d+)\s*bedroom`),
		bathsRe:    regexp.MustCompile(`(?i)(\d+)\s*bathroom`),
		sizeRe:     regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s*(?:sq\.?\s?ft|sqft|sq\.?\s?m|sqm)\b`),
		dateRe:     regexp.MustCompile(`(?i)(?:added|reduced) on\s+(\d{1,2}(?:/\d{2}/\d{4}|\s+[A-Za-z]+\s+\d{4}))`),
		phoneRe:    regexp.MustCompile(`(?:\+44\s?\d{2,4}|\(?0\d{2,4}\)?)[\s.-]?\d{3,4}[\s.-]?\d{3,4}`),
	}
}

// Extract runs every field chain in a fixed sequence against the page
// and assembles the canonical record. Fields with no successful strategy
// default to empty strings, empty slices, or nil pointers; the builder
// itself never infers one field from another.
func (e *Extractor) Extract(p page.Page) (*models.ExtractedListing, *models.ExtractionTrace) {
	snap := &snapshot{Page: p}
	trace := &models.ExtractionTrace{URL: p.URL(), StartedAt: time.Now()}

	listing := &models.ExtractedListing{
		ListingURL:  identity.CanonicalURL(p.URL()),
		KeyFeatures: []string{},
		ImageURLs:   []string{},
	}

	listing.Identifier = e.extractIdentifier(snap, trace)

	if title, ok := e.titleChain().Extract(snap, trace); ok {
		listing.Title = title
	}

	if price, ok := e.priceChain().Extract(snap, trace); ok {
		listing.Price = price
		if v, parsed := PriceNumeric(price); parsed {
			listing.PriceNumeric = &v
		}
	}

	if raw, ok := e.countChain("bedrooms", "bedroom", e.bedsRe).Extract(snap, trace); ok {
		if n, parsed := CountInRange(raw); parsed {
			listing.Bedrooms = &n
		}
	}
	if raw, ok := e.countChain("bathrooms", "bathroom", e.bathsRe).Extract(snap, trace); ok {
		if n, parsed := CountInRange(raw); parsed {
			listing.Bathrooms = &n
		}
	}

	if propertyType, ok := e.propertyTypeChain().Extract(snap, trace); ok {
		listing.PropertyType = propertyType
	}

	if size, ok := e.sizeChain().Extract(snap, trace); ok {
		listing.Size = size
	}

	listing.Description = e.extractDescription(snap, trace)
	listing.KeyFeatures = e.extractKeyFeatures(snap, trace)

	if raw, ok := e.dateChain().Extract(snap, trace); ok {
		if t, parsed := ParseDate(raw, e.cfg.DateFormats); parsed {
			listing.DateAdded = &t
		}
	}

	listing.ImageURLs = e.extractImages(snap, trace)
	listing.AgentPhone = e.extractPhone(snap, trace)

	trace.FinishedAt = time.Now()
	return listing, trace
}

func (e *Extractor) extractIdentifier(p page.Page, trace *models.ExtractionTrace) string {
	ft := models.FieldTrace{Field: "identifier"}
	id := identity.ListingID(p.URL())
	if id != "" {
		ft.Found = true
		ft.MatchedBy = "url-path"
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "url-path", Outcome: models.OutcomeMatched,
		})
	} else {
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "url-path", Outcome: models.OutcomeMiss,
		})
	}
	trace.Record(ft)
	return id
}

func (e *Extractor) titleChain() Chain {
	return Chain{
		Field: "title",
		Valid: func(s string) bool { return s != "" && len(s) < 512 },
		Strategies: []Strategy{
			{Name: "street-address", Run: func(p page.Page) (string, error) {
				return firstText(p, "h1[itemprop='streetAddress']"), nil
			}},
			{Name: "h1", Run: func(p page.Page) (string, error) {
				return firstText(p, "h1"), nil
			}},
		},
	}
}

func (e *Extractor) propertyTypeChain() Chain {
	return Chain{
		Field: "property_type",
		Valid: func(s string) bool { return s != "" && len(s) < 100 },
		Strategies: []Strategy{
			{Name: "label-pair", Run: func(p page.Page) (string, error) {
				if v := labelPairValue(p, "PROPERTY TYPE"); v != "" {
					return v, nil
				}
				return labelPairValue(p, "TYPE"), nil
			}},
			{Name: "known-type-line", Run: func(p page.Page) (string, error) {
				for _, line := range textLines(p) {
					for _, known := range knownPropertyTypes {
						if strings.EqualFold(line, known) {
							return line, nil
						}
					}
				}
				return "", nil
			}},
		},
	}
}

var knownPropertyTypes = []string{
	"Flat", "Apartment", "House", "Terraced", "End of Terrace",
	"Semi-Detached", "Detached", "Bungalow", "Maisonette", "Studio",
	"Duplex", "Penthouse",
}

// firstText returns the first non-empty trimmed text among the elements
// matching the selector.
func firstText(p page.Page, selector string) string {
	for _, el := range p.QueryAll(selector) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
	}
	return ""
}

// labelPairValue resolves a label/value structural pair: dt/dd zipped by
// position first, then a "Label: value" line form in the page text.
func labelPairValue(p page.Page, label string) string {
	labels := p.QueryAll("dt")
	values := p.QueryAll("dd")
	n := len(labels)
	if len(values) < n {
		n = len(values)
	}
	upper := strings.ToUpper(label)
	for i := 0; i < n; i++ {
		if strings.Contains(strings.ToUpper(labels[i].Text()), upper) {
			if v := strings.TrimSpace(values[i].Text()); v != "" {
				return v
			}
		}
	}

	for _, line := range textLines(p) {
		head, tail, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.Contains(strings.ToUpper(head), upper) {
			if v := strings.TrimSpace(tail); v != "" {
				return v
			}
		}
	}
	return ""
}

func textLines(p page.Page) []string {
	raw := strings.Split(p.FullText(), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
