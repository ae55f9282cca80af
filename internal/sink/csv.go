// Package sink persists harvested listings as tabular CSV output in one of
// two shapes: a row per subtitle chunk, or a row per listing holding the full
// document.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

// Schema selects the output row shape.
type Schema string

const (
	// SchemaChunks fans each listing out to one row per chunk: {name, subtitle, part}.
	SchemaChunks Schema = "chunks"
	// SchemaListings emits one row per listing with the full document:
	// {id, name, link, subtitleLink, subtitle}.
	SchemaListings Schema = "listings"
)

// ParseSchema validates a configured schema name.
func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case SchemaChunks, SchemaListings:
		return Schema(s), nil
	default:
		return "", fmt.Errorf("unknown output schema %q (want %q or %q)", s, SchemaChunks, SchemaListings)
	}
}

// CSVSink writes the record set to a CSV file.
type CSVSink struct {
	path   string
	schema Schema
}

// NewCSV creates a sink writing to path with the given schema.
func NewCSV(path string, schema Schema) *CSVSink {
	return &CSVSink{path: path, schema: schema}
}

// Write persists the full ordered record set, replacing any previous file.
func (s *CSVSink) Write(listings []models.HarvestedListing) error {
	logger := config.GetLogger()

	out, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)

	var rows int
	switch s.schema {
	case SchemaListings:
		rows, err = writeListingRows(w, listings)
	default:
		rows, err = writeChunkRows(w, listings)
	}
	if err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	logger.Info().
		Str("path", s.path).
		Str("schema", string(s.schema)).
		Int("rows", rows).
		Msg("Wrote output file")
	return nil
}

func writeChunkRows(w *csv.Writer, listings []models.HarvestedListing) (int, error) {
	if err := w.Write([]string{"name", "subtitle", "part"}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for _, listing := range listings {
		for _, chunk := range listing.Chunks {
			record := []string{listing.DisplayName, chunk.Text, strconv.Itoa(chunk.Part)}
			if err := w.Write(record); err != nil {
				return rows, fmt.Errorf("write chunk row: %w", err)
			}
			rows++
		}
	}
	return rows, nil
}

func writeListingRows(w *csv.Writer, listings []models.HarvestedListing) (int, error) {
	if err := w.Write([]string{"id", "name", "link", "subtitleLink", "subtitle"}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for _, listing := range listings {
		record := []string{
			strconv.Itoa(listing.Index),
			listing.DisplayName,
			listing.DetailURL,
			listing.ArchiveURL,
			listing.Text,
		}
		if err := w.Write(record); err != nil {
			return rows, fmt.Errorf("write listing row: %w", err)
		}
		rows++
	}
	return rows, nil
}
