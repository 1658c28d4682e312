package extract

import (
	"strings"

	"propscrape/page"
)

// priceChain resolves the listing price with progressively looser
// precision: known structural markers, then a full-text currency scan,
// then machine-readable page metadata.
func (e *Extractor) priceChain() Chain {
	cfg := e.cfg
	return Chain{
		Field: "price",
		Valid: func(s string) bool {
			return strings.Contains(s, cfg.CurrencySymbol) && containsDigit(s) && len(s) < 64
		},
		Strategies: []Strategy{
			{Name: "selector-markers", Run: func(p page.Page) (string, error) {
				for _, selector := range cfg.PriceSelectors {
					for _, el := range p.QueryAll(selector) {
						text := strings.TrimSpace(el.Text())
						if len(text) > 2 && strings.Contains(text, cfg.CurrencySymbol) && containsDigit(text) {
							return text, nil
						}
					}
				}
				return "", nil
			}},
			{Name: "text-scan-largest", Run: func(p page.Page) (string, error) {
				// The primary listing price is typically the largest
				// currency figure on the page; amounts below the
				// plausibility floor are incidental numbers, not prices.
				matches := e.currencyRe.FindAllString(p.FullText(), -1)
				var best string
				var bestValue float64
				for _, m := range matches {
					v, ok := PriceNumeric(m)
					if !ok || v < cfg.MinPlausiblePrice {
						continue
					}
					if v > bestValue {
						best, bestValue = m, v
					}
				}
				return best, nil
			}},
			{Name: "price-meta", Run: func(p page.Page) (string, error) {
				for _, el := range p.QueryAll("meta[property='og:price:amount']") {
					content, ok := el.Attribute("content")
					if !ok {
						continue
					}
					if _, parsed := PriceNumeric(content); parsed {
						return cfg.CurrencySymbol + content, nil
					}
				}
				return "", nil
			}},
		},
	}
}
