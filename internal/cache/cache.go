// Package cache keeps fetched catalog HTML warm for the duration of a run.
// Listing and detail pages are stored by URL so that revisits (a detail page
// reached from two listing pages, a resumed pagination pass) do not re-fetch.
// This layer is strictly in front of the on-disk archive cache, which stays
// presence-on-disk and is handled by the staging store.
package cache

// EvictCallback is called when a page is dropped to make room. Backends that
// expire server-side (Redis) only report drops they perform themselves.
type EvictCallback func(pageURL string, body []byte)

// Logger receives error reports from store operations. Backends that cannot
// fail silently (Redis) report through it; a nil logger discards reports.
type Logger interface {
	Error(msg string, err error)
}

// PageStore is the URL-keyed HTML cache the navigator reads through. Bodies
// are raw response bytes, stored before any charset conversion, so a cached
// page decodes exactly like a fresh one.
type PageStore interface {
	// GetPage returns the cached body for pageURL and whether it was present.
	GetPage(pageURL string) ([]byte, bool)

	// StorePage caches the body for pageURL, replacing any previous copy.
	StorePage(pageURL string, body []byte)

	// ContainsPage reports whether pageURL is cached without promoting it
	// in the recency ordering.
	ContainsPage(pageURL string) bool

	// Pages returns the number of pages currently held.
	Pages() int

	// Close releases backend resources. In-memory stores are a no-op.
	Close() error
}
