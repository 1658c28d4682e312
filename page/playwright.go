package page

import (
	"github.com/playwright-community/playwright-go"
)

// PlaywrightPage adapts a live playwright page to the Page interface.
type PlaywrightPage struct {
	pw playwright.Page
}

func FromPlaywright(p playwright.Page) *PlaywrightPage {
	return &PlaywrightPage{pw: p}
}

func (p *PlaywrightPage) URL() string {
	return p.pw.URL()
}

func (p *PlaywrightPage) QueryAll(selector string) []Element {
	locators, err := p.pw.Locator(selector).All()
	if err != nil {
		return nil
	}
	elements := make([]Element, 0, len(locators))
	for _, loc := range locators {
		elements = append(elements, &playwrightElement{loc: loc})
	}
	return elements
}

func (p *PlaywrightPage) FullText() string {
	text, err := p.pw.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return ""
	}
	return text
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e *playwrightElement) Text() string {
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return ""
	}
	return text
}

func (e *playwrightElement) Attribute(name string) (string, bool) {
	value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (e *playwrightElement) Click() error {
	return e.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(3000),
	})
}

func (e *playwrightElement) ScrollIntoView() error {
	return e.loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(3000),
	})
}
