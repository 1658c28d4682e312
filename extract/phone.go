package extract

import (
	"strings"
	"time"

	"propscrape/models"
	"propscrape/page"
)

const revealSettle = 500 * time.Millisecond

// extractPhone resolves the agent contact number. It first tries to
// trigger any "reveal phone number" control; interaction failures are
// swallowed and the chain proceeds with whatever the page already shows.
func (e *Extractor) extractPhone(p page.Page, trace *models.ExtractionTrace) *string {
	e.revealPhone(p)

	chain := Chain{
		Field: "agent_phone",
		Valid: e.validPhone,
		Strategies: []Strategy{
			{Name: "tel-link", Run: func(p page.Page) (string, error) {
				for _, el := range p.QueryAll("a[href^='tel:']") {
					if href, ok := el.Attribute("href"); ok {
						return strings.TrimSpace(strings.TrimPrefix(href, "tel:")), nil
					}
				}
				return "", nil
			}},
			{Name: "contact-section", Run: func(p page.Page) (string, error) {
				for _, selector := range []string{
					"[class*='contact']",
					"[data-testid*='contact']",
					"[class*='agent']",
				} {
					for _, el := range p.QueryAll(selector) {
						if m := e.phoneRe.FindString(el.Text()); m != "" {
							return strings.TrimSpace(m), nil
						}
					}
				}
				return "", nil
			}},
			{Name: "text-scan", Run: func(p page.Page) (string, error) {
				return strings.TrimSpace(e.phoneRe.FindString(p.FullText())), nil
			}},
		},
	}

	phone, ok := chain.Extract(p, trace)
	if !ok {
		return nil
	}
	return &phone
}

// revealPhone clicks the first visible reveal control, if any. Static
// accessors refuse interaction; that is a normal miss, not an error.
func (e *Extractor) revealPhone(p page.Page) {
	for _, selector := range e.cfg.PhoneRevealSelectors {
		for _, el := range p.QueryAll(selector) {
			_ = el.ScrollIntoView()
			if err := el.Click(); err != nil {
				continue
			}
			time.Sleep(revealSettle)
			return
		}
	}
}

// validPhone bounds the digit count the way a national number would
// allow; anything shorter is a fragment, anything longer a concatenation.
func (e *Extractor) validPhone(s string) bool {
	n := digitCount(s)
	return n >= 10 && n <= 13
}
