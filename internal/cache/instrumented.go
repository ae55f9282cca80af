package cache

// instrumentedStore wraps a PageStore and feeds the page_cache_* metrics.
// Eviction counting happens in Open's OnEvict wrapper; this layer covers the
// lookup path and the lazy page-count collector.
type instrumentedStore struct {
	inner PageStore
}

func newInstrumentedStore(inner PageStore) *instrumentedStore {
	registerPagesCollector(inner.Pages)
	return &instrumentedStore{inner: inner}
}

func (s *instrumentedStore) GetPage(pageURL string) ([]byte, bool) {
	body, ok := s.inner.GetPage(pageURL)
	if ok {
		HitsTotal.Inc()
	} else {
		MissesTotal.Inc()
	}
	return body, ok
}

func (s *instrumentedStore) StorePage(pageURL string, body []byte) {
	s.inner.StorePage(pageURL, body)
}

func (s *instrumentedStore) ContainsPage(pageURL string) bool {
	return s.inner.ContainsPage(pageURL)
}

func (s *instrumentedStore) Pages() int {
	return s.inner.Pages()
}

// Close unregisters the page-count collector and closes the inner store.
func (s *instrumentedStore) Close() error {
	unregisterPagesCollector()
	return s.inner.Close()
}
