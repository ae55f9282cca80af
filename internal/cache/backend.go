package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultMaxPages bounds the store when no capacity is configured. A full
// harvest touches one listing page per catalog page plus one detail page per
// listing, so a few hundred entries covers any realistic run.
const DefaultMaxPages = 256

// Options configures a page store backend.
type Options struct {
	// MaxPages is the capacity before least-recently-visited pages are
	// dropped. Zero or negative selects DefaultMaxPages.
	MaxPages int

	// TTL is how long a cached page stays valid. Catalog listings churn as
	// subtitles are uploaded, so bodies must not outlive the run by much.
	TTL time.Duration

	// OnEvict is called for each dropped page. Optional.
	OnEvict EvictCallback

	// Logger receives backend error reports. Optional.
	Logger Logger

	// Instrument wraps the store with Prometheus hit/miss/eviction counters
	// and a lazy page-count gauge.
	Instrument bool

	// RedisAddress is the Redis/Valkey server address (e.g., "localhost:6379").
	RedisAddress string

	// RedisPassword is the password for the Redis/Valkey server.
	RedisPassword string

	// RedisDB is the Redis/Valkey database number.
	RedisDB int
}

// Backend constructs a PageStore from options.
type Backend func(opts Options) (PageStore, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]Backend)
)

// RegisterBackend registers a page store backend under the given name.
// It panics if the name is already taken or the backend is nil.
func RegisterBackend(name string, b Backend) {
	backendMu.Lock()
	defer backendMu.Unlock()

	if b == nil {
		panic("cache: RegisterBackend backend is nil")
	}
	if _, exists := backends[name]; exists {
		panic(fmt.Sprintf("cache: backend %q already registered", name))
	}
	backends[name] = b
}

// Open creates a page store using the named backend. When opts.Instrument is
// set the store is wrapped so hits, misses, and evictions feed the
// page_cache_* Prometheus metrics, and a collector is registered that reads
// Pages() at scrape time instead of keeping an in-process count.
func Open(name string, opts Options) (PageStore, error) {
	backendMu.RLock()
	b, ok := backends[name]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown backend %q (registered: %v)", name, Backends())
	}

	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	if !opts.Instrument {
		return b(opts)
	}

	// Count evictions at this layer so every backend reports them the same way.
	original := opts.OnEvict
	opts.OnEvict = func(pageURL string, body []byte) {
		EvictionsTotal.Inc()
		if original != nil {
			original(pageURL, body)
		}
	}

	inner, err := b(opts)
	if err != nil {
		return nil, err
	}
	return newInstrumentedStore(inner), nil
}

// Backends returns a sorted list of registered backend names.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
