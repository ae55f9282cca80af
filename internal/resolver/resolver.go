// Package resolver locates the archive download link for one listing's
// detail page. The page exposes a subtitle-options table whose rows carry a
// language-label cell and a download-link cell; the first row whose label
// equals the target language exactly (after trimming) wins.
package resolver

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
	"github.com/mreshnaan/subtitle-harvester/internal/navigator"
)

// Resolver finds the subtitle archive link for a configured target language.
type Resolver struct {
	language string
}

// New creates a resolver for the given target language label.
func New(language string) *Resolver {
	return &Resolver{language: language}
}

// Resolve walks the detail page's subtitle-options table in document order
// and returns the archive URL of the first row whose language label matches.
// A missing table, an empty table, or no matching row all come back as
// ErrNoLanguageTrack, a skip condition for the caller rather than a fault.
func (r *Resolver) Resolve(page *navigator.Page) (*models.SubtitleReference, error) {
	logger := config.GetLogger()

	var ref *models.SubtitleReference

	page.Find("table tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		tds := row.Find("td")
		if tds.Length() < 2 {
			return true // header or filler row
		}

		label := strings.TrimSpace(tds.Eq(0).Text())
		if label != r.language {
			return true
		}

		href, exists := row.Find("a[href]").First().Attr("href")
		if !exists {
			logger.Debug().Int("row", i).Str("label", label).Msg("Matching row has no download link")
			return true
		}

		archiveURL := r.absoluteURL(page.URL(), href)
		if archiveURL == "" {
			logger.Debug().Int("row", i).Str("href", href).Msg("Failed to construct archive URL")
			return true
		}

		ref = &models.SubtitleReference{
			LanguageLabel: label,
			ArchiveURL:    archiveURL,
		}
		logger.Debug().Int("row", i).Str("url", archiveURL).Msg("Resolved subtitle archive link")
		return false
	})

	if ref == nil {
		return nil, apperrors.NewNoLanguageTrackError(r.language, page.URL())
	}
	return ref, nil
}

// absoluteURL resolves href against the detail page's own URL.
func (r *Resolver) absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	rel, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(rel).String()
}
