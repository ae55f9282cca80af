package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Page cache metrics. The harvester runs a single page cache, so these are
// plain counters rather than labelled families.
var (
	// HitsTotal counts page lookups served from the cache.
	HitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_cache_hits_total",
		Help: "Total number of page bodies served from the cache.",
	})

	// MissesTotal counts page lookups that fell through to the network.
	MissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_cache_misses_total",
		Help: "Total number of page lookups that missed the cache.",
	})

	// EvictionsTotal counts pages dropped to make room or by TTL.
	EvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_cache_evictions_total",
		Help: "Total number of pages evicted from the cache.",
	})
)

func init() {
	prometheus.MustRegister(
		HitsTotal,
		MissesTotal,
		EvictionsTotal,
	)
}

// pagesCollector lazily reports the current page count by calling pages at
// scrape time. Backends with server-side expiry (Redis) shrink outside the
// application's control, so a maintained gauge would drift.
type pagesCollector struct {
	desc  *prometheus.Desc
	pages func() int
}

func (c *pagesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *pagesCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.pages()))
}

var (
	pagesCollectorMu sync.Mutex
	activeCollector  *pagesCollector
	// pagesReg is the registerer for the page-count collector. A variable so
	// tests can substitute an isolated registry.
	pagesReg prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerPagesCollector installs the lazy page-count collector. An existing
// collector is replaced, so opening a fresh instrumented store (as tests do)
// is safe.
func registerPagesCollector(pages func() int) *pagesCollector {
	c := &pagesCollector{
		desc: prometheus.NewDesc(
			"page_cache_pages",
			"Current number of page bodies in the cache.",
			nil, nil,
		),
		pages: pages,
	}

	pagesCollectorMu.Lock()
	defer pagesCollectorMu.Unlock()

	if activeCollector != nil {
		pagesReg.Unregister(activeCollector)
	}
	activeCollector = c
	_ = pagesReg.Register(c)
	return c
}

// unregisterPagesCollector removes the page-count collector if present.
func unregisterPagesCollector() {
	pagesCollectorMu.Lock()
	defer pagesCollectorMu.Unlock()

	if activeCollector != nil {
		pagesReg.Unregister(activeCollector)
		activeCollector = nil
	}
}
