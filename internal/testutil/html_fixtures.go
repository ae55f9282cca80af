// Package testutil generates HTML fixtures matching the catalog site's
// structure, so parser and collector tests don't hand-roll markup.
package testutil

import (
	"fmt"
	"strings"
)

// ListingItemOptions configures one listing item on a generated catalog page.
type ListingItemOptions struct {
	Name       string
	DetailHref string
	OmitName   bool // render the item without a display-name element
	OmitLink   bool // render the item without a detail link
}

// GenerateListingPageHTML builds a catalog listing page: a media list whose
// items each carry a display-name element and a detail-page link.
func GenerateListingPageHTML(items []ListingItemOptions) string {
	var sb strings.Builder
	sb.WriteString("<html><body><ul class=\"media-list\">\n")
	for _, item := range items {
		sb.WriteString("<li>")
		if !item.OmitName {
			fmt.Fprintf(&sb, `<div class="media-title">%s</div>`, item.Name)
		}
		if !item.OmitLink {
			fmt.Fprintf(&sb, `<a href="%s">details</a>`, item.DetailHref)
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul></body></html>")
	return sb.String()
}

// EmptyListingPageHTML returns a catalog page whose media list has no items,
// the catalog-exhausted shape.
func EmptyListingPageHTML() string {
	return `<html><body><ul class="media-list"></ul></body></html>`
}

// SubtitleRowOptions configures one row of a generated subtitle-options table.
type SubtitleRowOptions struct {
	Language     string
	DownloadHref string
	OmitLink     bool // render the row without a download link
}

// GenerateDetailPageHTML builds a movie detail page containing the
// subtitle-options table: one row per available track with a language-label
// cell and a download-link cell.
func GenerateDetailPageHTML(rows []SubtitleRowOptions) string {
	var sb strings.Builder
	sb.WriteString("<html><body><h1>Movie</h1><table class=\"subtitle-options\">\n")
	sb.WriteString("<tr><th>Language</th><th>Download</th></tr>\n")
	for _, row := range rows {
		sb.WriteString("<tr>")
		fmt.Fprintf(&sb, "<td> %s </td>", row.Language)
		if row.OmitLink {
			sb.WriteString("<td></td>")
		} else {
			fmt.Fprintf(&sb, `<td><a href="%s">download</a></td>`, row.DownloadHref)
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table></body></html>")
	return sb.String()
}

// DetailPageWithoutTableHTML returns a detail page with no subtitle-options
// table at all.
func DetailPageWithoutTableHTML() string {
	return `<html><body><h1>Movie</h1><p>No subtitles yet.</p></body></html>`
}
