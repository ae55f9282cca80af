// Package archive decompresses staged subtitle archives and returns the text
// of the first subtitle document inside. Extraction is idempotent: the same
// archive extracted twice produces the same files and the same text.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nwaples/rardecode/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

// SubtitleExtension is the filename suffix that marks a subtitle document.
const SubtitleExtension = ".srt"

// Extractor unpacks archives into their staging directory.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// extraction is the outcome of unpacking one archive: the flattened entry
// names in archive order, and the raw bytes of the first subtitle entry.
// The bytes are captured while iterating because flattening can collide two
// entries onto one on-disk name, and the archive's internal order, not the
// survivor on disk, decides which entry is the subtitle.
type extraction struct {
	entries      []string
	subtitleName string
	subtitleRaw  []byte
}

// found reports whether a subtitle entry was seen.
func (e *extraction) found() bool {
	return e.subtitleName != ""
}

// record stores raw as the subtitle if name is the first subtitle entry seen.
func (e *extraction) record(name string, raw []byte) {
	if !e.found() && isSubtitleName(name) {
		e.subtitleName = name
		e.subtitleRaw = raw
	}
}

// ExtractSubtitle decompresses every entry of the artifact's archive into its
// extraction directory and returns the decoded text of the first entry (by
// the archive's internal ordering) whose name ends in the subtitle extension.
// An archive with no such entry fails with ErrNoSubtitleEntry, which the
// caller treats as a listing-level skip.
func (e *Extractor) ExtractSubtitle(artifact *models.ArchiveArtifact) (string, error) {
	logger := config.GetLogger()

	var ex *extraction
	var err error
	switch strings.ToLower(filepath.Ext(artifact.ArchivePath)) {
	case ".rar":
		ex, err = extractRar(artifact.ArchivePath, artifact.ExtractionDir)
	default:
		ex, err = extractZip(artifact.ArchivePath, artifact.ExtractionDir)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", artifact.ArchivePath, err)
	}

	logger.Debug().
		Str("archive", artifact.ArchivePath).
		Int("entries", len(ex.entries)).
		Msg("Archive extracted")

	if !ex.found() {
		return "", &apperrors.ErrNoSubtitleEntry{
			Archive:   artifact.ArchivePath,
			FileCount: len(ex.entries),
		}
	}

	text, err := decodeToUTF8(ex.subtitleRaw)
	if err != nil {
		return "", fmt.Errorf("decode subtitle %s: %w", ex.subtitleName, err)
	}

	logger.Info().
		Str("subtitle", ex.subtitleName).
		Int("bytes", len(ex.subtitleRaw)).
		Msg("Extracted subtitle document")

	return text, nil
}

// isSubtitleName reports whether a flattened entry name carries the subtitle
// extension, case-insensitively.
func isSubtitleName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), SubtitleExtension)
}

// extractZip decompresses all file entries into destDir.
func extractZip(archivePath, destDir string) (*extraction, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open ZIP archive: %w", err)
	}
	defer reader.Close()

	ex := &extraction{}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(file.Name)
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", file.Name, err)
		}
		raw, err := writeEntry(filepath.Join(destDir, name), rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("write entry %s: %w", name, err)
		}
		ex.record(name, raw)
		ex.entries = append(ex.entries, name)
	}
	return ex, nil
}

// extractRar decompresses all file entries into destDir.
func extractRar(archivePath, destDir string) (*extraction, error) {
	reader, err := rardecode.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open RAR archive: %w", err)
	}
	defer reader.Close()

	ex := &extraction{}
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read RAR entry: %w", err)
		}
		if header.IsDir {
			continue
		}

		name := filepath.Base(header.Name)
		raw, err := writeEntry(filepath.Join(destDir, name), reader)
		if err != nil {
			return nil, fmt.Errorf("write entry %s: %w", name, err)
		}
		ex.record(name, raw)
		ex.entries = append(ex.entries, name)
	}
	return ex, nil
}

// writeEntry copies an archive entry to disk and returns its bytes. Entry
// names are flattened with filepath.Base before the caller joins them, so
// hostile paths cannot escape the extraction directory.
func writeEntry(path string, r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, err
	}
	return raw, nil
}

// decodeToUTF8 converts subtitle bytes of any detectable encoding to UTF-8.
// Valid UTF-8 passes through unchanged; the sniffer's windows-1252 fallback
// only applies to input that isn't UTF-8 already.
func decodeToUTF8(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	enc, _, _ := charset.DetermineEncoding(raw, "")
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
