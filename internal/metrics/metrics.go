package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Harvest run metrics.
var (
	// PagesTotal counts catalog listing pages visited.
	PagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_pages_total",
			Help: "Total number of catalog listing pages visited.",
		},
	)

	// ListingsTotal counts listings by outcome: "success" or the stage that
	// caused a skip ("navigate", "resolve", "download", "extract", "normalize").
	ListingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_listings_total",
			Help: "Total number of listings processed, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	// DownloadsTotal counts archive transfers: "hit" (served from disk),
	// "miss" (network transfer performed), "failed".
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_downloads_total",
			Help: "Total number of archive downloads, labelled by result.",
		},
		[]string{"result"},
	)

	// ChunksTotal counts subtitle chunks emitted as output records.
	ChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_chunks_total",
			Help: "Total number of subtitle chunks emitted.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PagesTotal,
		ListingsTotal,
		DownloadsTotal,
		ChunksTotal,
	)
}
