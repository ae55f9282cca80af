package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

func sampleListings() []models.HarvestedListing {
	return []models.HarvestedListing{
		{
			Index:       1,
			DisplayName: "The Quiet Earth",
			DetailURL:   "https://catalog.example/movies/quiet-earth",
			ArchiveURL:  "https://catalog.example/archives/quiet-earth.zip",
			Text:        "First line of dialogue. Second line, with a comma.",
			Chunks: []models.SubtitleChunk{
				{Text: "First line of dialogue.", Part: 1},
				{Text: "Second line, with a comma.", Part: 2},
			},
		},
		{
			Index:       2,
			DisplayName: "Stalker",
			DetailURL:   "https://catalog.example/movies/stalker",
			ArchiveURL:  "https://catalog.example/archives/stalker.zip",
			Text:        "A single short document.",
			Chunks: []models.SubtitleChunk{
				{Text: "A single short document.", Part: 1},
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return records
}

func TestParseSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Schema
		wantErr bool
	}{
		{"chunks", "chunks", SchemaChunks, false},
		{"listings", "listings", SchemaListings, false},
		{"unknown", "parquet", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchema(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchema(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSchema(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCSVSink_ChunkSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSV(path, SchemaChunks).Write(sampleListings()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := [][]string{
		{"name", "subtitle", "part"},
		{"The Quiet Earth", "First line of dialogue.", "1"},
		{"The Quiet Earth", "Second line, with a comma.", "2"},
		{"Stalker", "A single short document.", "1"},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("chunk rows = %v, want %v", got, want)
	}
}

func TestCSVSink_ListingSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSV(path, SchemaListings).Write(sampleListings()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := [][]string{
		{"id", "name", "link", "subtitleLink", "subtitle"},
		{"1", "The Quiet Earth", "https://catalog.example/movies/quiet-earth", "https://catalog.example/archives/quiet-earth.zip", "First line of dialogue. Second line, with a comma."},
		{"2", "Stalker", "https://catalog.example/movies/stalker", "https://catalog.example/archives/stalker.zip", "A single short document."},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("listing rows = %v, want %v", got, want)
	}
}

func TestCSVSink_EmptyRunWritesHeaderOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSV(path, SchemaChunks).Write(nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("got %d records, want header only", len(records))
	}
}

func TestCSVSink_ReplacesPreviousFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	if err := NewCSV(path, SchemaChunks).Write(sampleListings()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[0][0] != "name" {
		t.Errorf("first cell = %q, want header row", records[0][0])
	}
}

func TestCSVSink_UnwritablePath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	if err := NewCSV(path, SchemaChunks).Write(sampleListings()); err == nil {
		t.Fatal("expected error for unwritable output path")
	}
}
