package models

// ListingEntry is one movie discovered on a catalog listing page.
// Entries are transient: they are consumed by the collector immediately
// and never persisted.
type ListingEntry struct {
	DisplayName string `json:"displayName"`
	DetailURL   string `json:"detailUrl"`
}

// SubtitleReference is the resolved archive link for one listing:
// the first row of the detail page's subtitle-options table whose language
// label equals the target language exactly after trimming.
type SubtitleReference struct {
	LanguageLabel string `json:"languageLabel"`
	ArchiveURL    string `json:"archiveUrl"`
}

// ArchiveArtifact describes a staged archive on disk. It is owned by the
// staging store: created on first download of a given archive filename and
// reused indefinitely afterwards, never re-downloaded.
type ArchiveArtifact struct {
	// ArchivePath is the local path of the downloaded archive file.
	ArchivePath string
	// ExtractionDir is the directory the archive's entries were (or will be)
	// extracted into. Extracted entries live alongside the archive.
	ExtractionDir string
	// CacheHit reports whether the archive was already present on disk and
	// no network transfer was performed.
	CacheHit bool
}
