package extract

import (
	"regexp"
	"strings"

	"propscrape/page"
)

var areaUnitRe = regexp.MustCompile(`(?i)\b(?:sq\.?\s?ft|sqft|sq\.?\s?m|sqm)\b`)

// sizeChain resolves the floor area: a SIZE / FLOOR AREA label pair whose
// value carries a recognized area unit, else a unit-suffixed number scan
// over the page text.
func (e *Extractor) sizeChain() Chain {
	return Chain{
		Field: "size",
		Valid: func(s string) bool {
			return len(s) < 100 && containsDigit(s) && areaUnitRe.MatchString(s)
		},
		Strategies: []Strategy{
			{Name: "label-pair", Run: func(p page.Page) (string, error) {
				for _, label := range []string{"SIZE", "FLOOR AREA"} {
					if v := labelPairValue(p, label); v != "" && areaUnitRe.MatchString(v) {
						return v, nil
					}
				}
				return "", nil
			}},
			{Name: "text-scan", Run: func(p page.Page) (string, error) {
				return strings.TrimSpace(e.sizeRe.FindString(p.FullText())), nil
			}},
		},
	}
}

// dateChain resolves the "Added on" / "Reduced on" date: dedicated
// date-labelled elements first, then the full page text. The candidate is
// the raw date phrase; parsing happens in the normalizer against the
// site's ordered layout list.
func (e *Extractor) dateChain() Chain {
	valid := func(s string) bool {
		_, ok := ParseDate(s, e.cfg.DateFormats)
		return ok
	}
	return Chain{
		Field: "date_added",
		Valid: valid,
		Strategies: []Strategy{
			{Name: "date-elements", Run: func(p page.Page) (string, error) {
				for _, selector := range []string{
					"[data-testid*='date']",
					"[class*='added']",
					"[class*='reduced']",
				} {
					for _, el := range p.QueryAll(selector) {
						if m := e.dateRe.FindStringSubmatch(el.Text()); m != nil {
							return m[1], nil
						}
					}
				}
				return "", nil
			}},
			{Name: "text-scan", Run: func(p page.Page) (string, error) {
				if m := e.dateRe.FindStringSubmatch(p.FullText()); m != nil {
					return m[1], nil
				}
				return "", nil
			}},
		},
	}
}
