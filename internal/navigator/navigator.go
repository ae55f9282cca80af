package navigator

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Page is a loaded document handle for one catalog page. Queries run against
// the parsed document; the handle must be released with Close after use.
type Page struct {
	url string
	doc *goquery.Document
}

// NewPage wraps a parsed document as a Page handle.
func NewPage(url string, doc *goquery.Document) *Page {
	return &Page{url: url, doc: doc}
}

// URL returns the address the page was loaded from.
func (p *Page) URL() string {
	return p.url
}

// Find runs a CSS-selector query against the loaded document.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// Close releases the page handle. HTTP-backed pages hold no live resources,
// but browser-automation bindings do, so callers always close.
func (p *Page) Close() error {
	p.doc = nil
	return nil
}

// Navigator is the capability the pipeline needs from a navigation session:
// load a URL into a queryable document handle. Any concrete binding (plain
// HTTP, headless browser) can implement it; the core never sees more than this.
type Navigator interface {
	// Open navigates to pageURL and returns the loaded document handle.
	// The handle is owned by the caller and must be closed after use.
	Open(ctx context.Context, pageURL string) (*Page, error)

	// Close releases any resources held by the session.
	Close() error
}
