package cache

import (
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	RegisterBackend("memory", newMemoryStore)
}

// memoryStore holds page bodies in an expiring LRU. The recency ordering
// means a pagination pass that loops back over recent listing pages keeps
// them resident while one-off detail pages age out first.
type memoryStore struct {
	pages *lru.LRU[string, []byte]
}

func newMemoryStore(opts Options) (PageStore, error) {
	var onEvict func(string, []byte)
	if opts.OnEvict != nil {
		onEvict = func(pageURL string, body []byte) {
			opts.OnEvict(pageURL, body)
		}
	}
	return &memoryStore{
		pages: lru.NewLRU[string, []byte](opts.MaxPages, onEvict, opts.TTL),
	}, nil
}

func (m *memoryStore) GetPage(pageURL string) ([]byte, bool) {
	return m.pages.Get(pageURL)
}

func (m *memoryStore) StorePage(pageURL string, body []byte) {
	m.pages.Add(pageURL, body)
}

func (m *memoryStore) ContainsPage(pageURL string) bool {
	return m.pages.Contains(pageURL)
}

func (m *memoryStore) Pages() int {
	return m.pages.Len()
}

func (m *memoryStore) Close() error {
	return nil
}
