package extract

import (
	"regexp"

	"propscrape/page"
)

// countChain resolves a room count (bedrooms or bathrooms): a label/value
// structural pair first, then the page's metadata description string,
// then a loose "<N> bedroom" phrase scan over the rendered text. The
// validity predicate rejects out-of-range values so a later, looser
// strategy still gets its chance.
func (e *Extractor) countChain(field, label string, phraseRe *regexp.Regexp) Chain {
	return Chain{
		Field: field,
		Valid: func(s string) bool {
			_, ok := CountInRange(s)
			return ok
		},
		Strategies: []Strategy{
			{Name: "label-pair", Run: func(p page.Page) (string, error) {
				return labelPairValue(p, label), nil
			}},
			{Name: "meta-description", Run: func(p page.Page) (string, error) {
				for _, selector := range []string{
					"meta[name='description']",
					"meta[property='og:description']",
				} {
					for _, el := range p.QueryAll(selector) {
						content, ok := el.Attribute("content")
						if !ok {
							continue
						}
						if m := phraseRe.FindStringSubmatch(content); m != nil {
							return m[1], nil
						}
					}
				}
				return "", nil
			}},
			{Name: "text-phrase", Run: func(p page.Page) (string, error) {
				if m := phraseRe.FindStringSubmatch(p.FullText()); m != nil {
					return m[1], nil
				}
				return "", nil
			}},
		},
	}
}
