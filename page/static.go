package page

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StaticPage serves a fetched HTML snapshot through the Page interface.
// It backs the non-browser crawl path and the extraction tests; the only
// thing it cannot do is interact with reveal controls.
type StaticPage struct {
	url  string
	doc  *goquery.Document
	text string
}

func NewStaticPage(url string, r io.Reader) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}
	return &StaticPage{url: url, doc: doc}, nil
}

func NewStaticPageFromHTML(url, markup string) (*StaticPage, error) {
	return NewStaticPage(url, strings.NewReader(markup))
}

func (p *StaticPage) URL() string {
	return p.url
}

func (p *StaticPage) QueryAll(selector string) []Element {
	var elements []Element
	p.doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		elements = append(elements, &staticElement{sel: s})
	})
	return elements
}

func (p *StaticPage) FullText() string {
	if p.text == "" {
		body := p.doc.Find("body")
		if body.Length() == 0 {
			body = p.doc.Selection
		}
		p.text = linearize(body)
	}
	return p.text
}

type staticElement struct {
	sel *goquery.Selection
}

func (e *staticElement) Text() string {
	return strings.TrimSpace(collapseSpace(e.sel.Text()))
}

func (e *staticElement) Attribute(name string) (string, bool) {
	value, ok := e.sel.Attr(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (e *staticElement) Click() error { return ErrNoInteraction }

func (e *staticElement) ScrollIntoView() error { return nil }

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "section": true, "table": true, "td": true,
	"tr": true, "ul": true,
}

// linearize renders a selection the way a browser's innerText would:
// one line per block element, inline content joined on the same line.
// The waterfall's text strategies depend on this line structure.
func linearize(sel *goquery.Selection) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
			if blockTags[n.Data] {
				b.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if blockTags[n.Data] {
				b.WriteByte('\n')
			}
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(collapseSpace(line))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
