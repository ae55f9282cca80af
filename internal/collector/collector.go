// Package collector drives the page-by-page, movie-by-movie harvest: it walks
// catalog listing pages, runs each listing through resolution, staging,
// extraction, and chunking, skips listings that fail any stage, and stops when
// either the catalog is exhausted or the configured item quota is reached.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/metrics"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
	"github.com/mreshnaan/subtitle-harvester/internal/navigator"
	"github.com/mreshnaan/subtitle-harvester/internal/subtitle"
)

// SiteLayout names the CSS selectors of the catalog's listing structure:
// a container of listing items, each exposing a display-name element and a
// link to the movie's detail page.
type SiteLayout struct {
	ListingItem string
	DisplayName string
	DetailLink  string
}

// DefaultSiteLayout matches the catalog's stock markup.
func DefaultSiteLayout() SiteLayout {
	return SiteLayout{
		ListingItem: "ul.media-list li",
		DisplayName: ".media-title",
		DetailLink:  "a[href]",
	}
}

// LinkResolver resolves a detail page to a subtitle archive reference.
type LinkResolver interface {
	Resolve(page *navigator.Page) (*models.SubtitleReference, error)
}

// ArchiveStager ensures an archive URL is available as a local artifact.
type ArchiveStager interface {
	Stage(ctx context.Context, archiveURL string) (*models.ArchiveArtifact, error)
}

// SubtitleExtractor returns the subtitle document text inside an artifact.
type SubtitleExtractor interface {
	ExtractSubtitle(artifact *models.ArchiveArtifact) (string, error)
}

// Collector is the harvest orchestrator.
type Collector struct {
	nav            navigator.Navigator
	resolver       LinkResolver
	stager         ArchiveStager
	extractor      SubtitleExtractor
	layout         SiteLayout
	baseURL        string
	maxItems       int
	listingTimeout time.Duration
}

// New wires a collector from its collaborators and run parameters.
func New(cfg *config.Config, nav navigator.Navigator, res LinkResolver, stager ArchiveStager, ext SubtitleExtractor) *Collector {
	listingTimeout := 2 * time.Minute
	if cfg.ListingTimeout != "" {
		if parsed, err := time.ParseDuration(cfg.ListingTimeout); err == nil {
			listingTimeout = parsed
		}
	}

	return &Collector{
		nav:            nav,
		resolver:       res,
		stager:         stager,
		extractor:      ext,
		layout:         DefaultSiteLayout(),
		baseURL:        cfg.BaseURL,
		maxItems:       cfg.MaxItems,
		listingTimeout: listingTimeout,
	}
}

// WithLayout overrides the catalog's listing selectors.
func (c *Collector) WithLayout(layout SiteLayout) *Collector {
	c.layout = layout
	return c
}

// Run walks the catalog until the item quota is reached or a page yields no
// listings. Stage failures are caught at the per-listing boundary and skipped;
// only staging-space failures abort the run. The returned listings carry
// strictly increasing, gap-free global indexes starting at 1.
func (c *Collector) Run(ctx context.Context) ([]models.HarvestedListing, error) {
	logger := config.GetLogger()
	state := models.NewCollectionState()
	skipped := 0

	var results []models.HarvestedListing

	for !state.QuotaReached(c.maxItems) {
		url := pageURL(c.baseURL, state.CurrentPageNumber)
		logger.Info().Int("page", state.CurrentPageNumber).Str("url", url).Msg("Fetching listing page")

		page, err := c.nav.Open(ctx, url)
		if err != nil {
			logger.Warn().Err(err).Int("page", state.CurrentPageNumber).Msg("Listing page failed to load, stopping pagination")
			break
		}
		metrics.PagesTotal.Inc()

		entries := c.parseListings(page)
		_ = page.Close()

		if len(entries) == 0 {
			logger.Info().Int("page", state.CurrentPageNumber).Msg("No listings on page, catalog exhausted")
			break
		}

		for position, entry := range entries {
			if state.QuotaReached(c.maxItems) {
				break
			}

			result, stage, err := c.processListing(ctx, entry)
			if err != nil {
				if errors.Is(err, &apperrors.ErrStagingUnavailable{}) {
					return results, err
				}
				skipped++
				metrics.ListingsTotal.WithLabelValues(stage).Inc()
				logger.Warn().
					Err(err).
					Int("page", state.CurrentPageNumber).
					Int("position", position).
					Str("listing", entry.DisplayName).
					Str("stage", stage).
					Msg("Skipping listing")
				continue
			}

			result.Index = state.NextItemIndex
			results = append(results, *result)
			state.NextItemIndex++
			state.EmittedCount++
			metrics.ListingsTotal.WithLabelValues("success").Inc()
			metrics.ChunksTotal.Add(float64(len(result.Chunks)))

			logger.Info().
				Int("index", result.Index).
				Str("listing", result.DisplayName).
				Int("chunks", len(result.Chunks)).
				Msg("Harvested listing")
		}

		if state.QuotaReached(c.maxItems) {
			break
		}
		state.CurrentPageNumber++
	}

	logger.Info().
		Int("pages", state.CurrentPageNumber).
		Int("emitted", state.EmittedCount).
		Int("skipped", skipped).
		Msg("Collection run finished")

	return results, nil
}

// parseListings enumerates listing items on a loaded catalog page. Items
// missing a display name or detail link are dropped here, before they reach
// the global index.
func (c *Collector) parseListings(page *navigator.Page) []models.ListingEntry {
	logger := config.GetLogger()

	var entries []models.ListingEntry
	page.Find(c.layout.ListingItem).Each(func(i int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(c.layout.DisplayName).First().Text())
		href, exists := item.Find(c.layout.DetailLink).First().Attr("href")
		if name == "" || !exists || strings.TrimSpace(href) == "" {
			logger.Debug().Int("item", i).Msg("Listing item missing name or link, dropped")
			return
		}

		entries = append(entries, models.ListingEntry{
			DisplayName: name,
			DetailURL:   absoluteURL(page.URL(), strings.TrimSpace(href)),
		})
	})

	logger.Debug().Int("listings", len(entries)).Str("page", page.URL()).Msg("Parsed listing page")
	return entries
}

// processListing runs one listing through the full pipeline under the
// per-listing timeout. On failure it reports which stage gave up so skips can
// be diagnosed without stopping the batch.
func (c *Collector) processListing(ctx context.Context, entry models.ListingEntry) (*models.HarvestedListing, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listingTimeout)
	defer cancel()

	detail, err := c.nav.Open(ctx, entry.DetailURL)
	if err != nil {
		return nil, "navigate", err
	}
	ref, err := c.resolver.Resolve(detail)
	_ = detail.Close()
	if err != nil {
		return nil, "resolve", err
	}

	artifact, err := c.stager.Stage(ctx, ref.ArchiveURL)
	if err != nil {
		return nil, "download", err
	}

	text, err := c.extractor.ExtractSubtitle(artifact)
	if err != nil {
		return nil, "extract", err
	}

	chunks := subtitle.Chunks(text)
	if len(chunks) == 0 {
		return nil, "normalize", fmt.Errorf("subtitle document for %q is empty after normalization", entry.DisplayName)
	}

	return &models.HarvestedListing{
		DisplayName: entry.DisplayName,
		DetailURL:   entry.DetailURL,
		ArchiveURL:  ref.ArchiveURL,
		Text:        subtitle.Normalize(text),
		Chunks:      chunks,
	}, "", nil
}

// absoluteURL resolves a listing item's href against the page it came from.
func absoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	rel, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(rel).String()
}

// pageURL builds the catalog URL for a given page number. Page 1 is the base
// URL itself.
func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, separator, page)
}
