package models

// SubtitleChunk is one fixed-length window of a normalized subtitle document.
// Part numbers start at 1 and follow the original character order.
type SubtitleChunk struct {
	Text string `json:"text"`
	Part int    `json:"part"`
}

// HarvestedListing is the fully processed result for one successful listing.
// Index is the global item index assigned by the collector: strictly
// increasing, gap-free across successful listings, starting at 1.
type HarvestedListing struct {
	Index       int             `json:"id"`
	DisplayName string          `json:"name"`
	DetailURL   string          `json:"link"`
	ArchiveURL  string          `json:"subtitleLink"`
	Text        string          `json:"subtitle"`
	Chunks      []SubtitleChunk `json:"chunks"`
}

// CollectionState tracks the collector's two counters. It is created once per
// run and advances monotonically; it is never shared between runs.
type CollectionState struct {
	// NextItemIndex is the global item index the next successful listing
	// will receive. Starts at 1 and only advances on success.
	NextItemIndex int
	// EmittedCount is the number of listings emitted so far.
	EmittedCount int
	// CurrentPageNumber is the catalog page being processed, starting at 1.
	CurrentPageNumber int
}

// NewCollectionState returns the starting state for a run.
func NewCollectionState() CollectionState {
	return CollectionState{NextItemIndex: 1, CurrentPageNumber: 1}
}

// QuotaReached reports whether maxItems successful listings have been
// emitted. The bound is inclusive: exactly maxItems listings, never one more.
func (s CollectionState) QuotaReached(maxItems int) bool {
	return s.NextItemIndex > maxItems
}
