package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

// writeZipArchive builds a ZIP file at path with the given entries in order.
func writeZipArchive(t *testing.T, path string, entries map[string]string, order []string) {
	t.Helper()

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, name := range order {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(entries[name])); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
}

func stagedArtifact(t *testing.T, entries map[string]string, order []string) *models.ArchiveArtifact {
	t.Helper()
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "movie.zip")
	writeZipArchive(t, archivePath, entries, order)
	return &models.ArchiveArtifact{ArchivePath: archivePath, ExtractionDir: dir}
}

func TestExtractSubtitle_FirstSrtEntryWins(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{
			"info.nfo":   "release notes",
			"movie.srt":  "1\n00:00:01,000 --> 00:00:02,000\nHello\n",
			"readme.txt": "readme",
			"other.srt":  "should not be chosen",
		},
		[]string{"info.nfo", "movie.srt", "readme.txt", "other.srt"},
	)

	text, err := New().ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("ExtractSubtitle: %v", err)
	}
	if want := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtractSubtitle_CollidingBaseNamesKeepFirstEntry(t *testing.T) {
	t.Parallel()

	// Two entries in different directories flatten to the same on-disk name.
	// The later entry wins on disk, but the returned text must come from the
	// earlier one, following the archive's internal order.
	artifact := stagedArtifact(t,
		map[string]string{
			"a/movie.srt": "first entry dialogue",
			"b/movie.srt": "second entry dialogue",
		},
		[]string{"a/movie.srt", "b/movie.srt"},
	)

	text, err := New().ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("ExtractSubtitle: %v", err)
	}
	if text != "first entry dialogue" {
		t.Errorf("text = %q, want the first colliding entry's content", text)
	}
}

func TestExtractSubtitle_NoSubtitleEntry(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{"info.nfo": "notes", "readme.txt": "readme"},
		[]string{"info.nfo", "readme.txt"},
	)

	_, err := New().ExtractSubtitle(artifact)
	if !errors.Is(err, &apperrors.ErrNoSubtitleEntry{}) {
		t.Fatalf("err = %v, want ErrNoSubtitleEntry", err)
	}
}

func TestExtractSubtitle_Idempotent(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{"movie.srt": "same text every time"},
		[]string{"movie.srt"},
	)

	ext := New()
	first, err := ext.ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("first extraction: %v", err)
	}
	second, err := ext.ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("second extraction: %v", err)
	}
	if first != second {
		t.Errorf("re-extraction changed output: %q vs %q", first, second)
	}
}

func TestExtractSubtitle_EntriesExtractedAlongsideArchive(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{"info.nfo": "notes", "movie.srt": "dialogue"},
		[]string{"info.nfo", "movie.srt"},
	)

	if _, err := New().ExtractSubtitle(artifact); err != nil {
		t.Fatalf("ExtractSubtitle: %v", err)
	}

	for _, name := range []string{"info.nfo", "movie.srt"} {
		if _, err := os.Stat(filepath.Join(artifact.ExtractionDir, name)); err != nil {
			t.Errorf("entry %s should be extracted next to the archive: %v", name, err)
		}
	}
}

func TestExtractSubtitle_HostilePathsFlattened(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{"../escape.srt": "contained"},
		[]string{"../escape.srt"},
	)

	text, err := New().ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("ExtractSubtitle: %v", err)
	}
	if text != "contained" {
		t.Errorf("text = %q, want %q", text, "contained")
	}
	if _, err := os.Stat(filepath.Join(artifact.ExtractionDir, "escape.srt")); err != nil {
		t.Errorf("entry should land inside the extraction dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(artifact.ExtractionDir), "escape.srt")); err == nil {
		t.Error("entry escaped the extraction dir")
	}
}

func TestExtractSubtitle_UppercaseExtension(t *testing.T) {
	t.Parallel()

	artifact := stagedArtifact(t,
		map[string]string{"MOVIE.SRT": "upper"},
		[]string{"MOVIE.SRT"},
	)

	text, err := New().ExtractSubtitle(artifact)
	if err != nil {
		t.Fatalf("ExtractSubtitle: %v", err)
	}
	if text != "upper" {
		t.Errorf("text = %q, want %q", text, "upper")
	}
}

func TestDecodeToUTF8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"plain ascii", []byte("plain dialogue"), "plain dialogue"},
		{"valid utf-8 passes through", []byte("héllo — wörld"), "héllo — wörld"},
		{"windows-1252 fallback", []byte{'c', 'a', 'f', 0xe9}, "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeToUTF8(tt.raw)
			if err != nil {
				t.Fatalf("decodeToUTF8: %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeToUTF8 = %q, want %q", got, tt.want)
			}
		})
	}
}
