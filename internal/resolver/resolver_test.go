package resolver

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/navigator"
	"github.com/mreshnaan/subtitle-harvester/internal/testutil"
)

func pageFromHTML(t *testing.T, url, html string) *navigator.Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture HTML: %v", err)
	}
	return navigator.NewPage(url, doc)
}

func TestResolver_FirstExactMatch(t *testing.T) {
	t.Parallel()

	html := testutil.GenerateDetailPageHTML([]testutil.SubtitleRowOptions{
		{Language: "French", DownloadHref: "/download/a.zip"},
		{Language: "English", DownloadHref: "/download/b.zip"},
		{Language: "English", DownloadHref: "/download/c.zip"},
	})
	page := pageFromHTML(t, "https://catalog.example/movie/42", html)

	ref, err := New("English").Resolve(page)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ref.LanguageLabel != "English" {
		t.Errorf("LanguageLabel = %q, want English", ref.LanguageLabel)
	}
	// First matching row wins, and the href is made absolute.
	if want := "https://catalog.example/download/b.zip"; ref.ArchiveURL != want {
		t.Errorf("ArchiveURL = %q, want %q", ref.ArchiveURL, want)
	}
}

func TestResolver_ExactMatchIsCaseSensitive(t *testing.T) {
	t.Parallel()

	html := testutil.GenerateDetailPageHTML([]testutil.SubtitleRowOptions{
		{Language: "english", DownloadHref: "/download/a.zip"},
		{Language: "English subtitles", DownloadHref: "/download/b.zip"},
	})
	page := pageFromHTML(t, "https://catalog.example/movie/1", html)

	_, err := New("English").Resolve(page)
	if !errors.Is(err, &apperrors.ErrNoLanguageTrack{}) {
		t.Errorf("err = %v, want ErrNoLanguageTrack", err)
	}
}

func TestResolver_NoMatchingRow(t *testing.T) {
	t.Parallel()

	html := testutil.GenerateDetailPageHTML([]testutil.SubtitleRowOptions{
		{Language: "French", DownloadHref: "/download/a.zip"},
		{Language: "German", DownloadHref: "/download/b.zip"},
	})
	page := pageFromHTML(t, "https://catalog.example/movie/2", html)

	_, err := New("English").Resolve(page)
	if !errors.Is(err, &apperrors.ErrNoLanguageTrack{}) {
		t.Errorf("err = %v, want ErrNoLanguageTrack", err)
	}
}

func TestResolver_TableAbsent(t *testing.T) {
	t.Parallel()

	page := pageFromHTML(t, "https://catalog.example/movie/3", testutil.DetailPageWithoutTableHTML())

	_, err := New("English").Resolve(page)
	if !errors.Is(err, &apperrors.ErrNoLanguageTrack{}) {
		t.Errorf("err = %v, want ErrNoLanguageTrack", err)
	}
}

func TestResolver_EmptyTable(t *testing.T) {
	t.Parallel()

	page := pageFromHTML(t, "https://catalog.example/movie/4",
		testutil.GenerateDetailPageHTML(nil))

	_, err := New("English").Resolve(page)
	if !errors.Is(err, &apperrors.ErrNoLanguageTrack{}) {
		t.Errorf("err = %v, want ErrNoLanguageTrack", err)
	}
}

func TestResolver_MatchingRowWithoutLinkIsPassedOver(t *testing.T) {
	t.Parallel()

	html := testutil.GenerateDetailPageHTML([]testutil.SubtitleRowOptions{
		{Language: "English", OmitLink: true},
		{Language: "English", DownloadHref: "/download/fallback.zip"},
	})
	page := pageFromHTML(t, "https://catalog.example/movie/5", html)

	ref, err := New("English").Resolve(page)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := "https://catalog.example/download/fallback.zip"; ref.ArchiveURL != want {
		t.Errorf("ArchiveURL = %q, want %q", ref.ArchiveURL, want)
	}
}

func TestResolver_LabelWhitespaceTrimmed(t *testing.T) {
	t.Parallel()

	// The fixture renders labels with surrounding whitespace on purpose.
	html := testutil.GenerateDetailPageHTML([]testutil.SubtitleRowOptions{
		{Language: "English", DownloadHref: "https://cdn.example/direct.rar"},
	})
	page := pageFromHTML(t, "https://catalog.example/movie/6", html)

	ref, err := New("English").Resolve(page)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ref.ArchiveURL != "https://cdn.example/direct.rar" {
		t.Errorf("absolute href should pass through unchanged, got %q", ref.ArchiveURL)
	}
}
