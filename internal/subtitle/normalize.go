// Package subtitle turns raw SRT text into bounded output chunks. The whole
// package is deterministic and pure: the same input always yields the same
// chunk sequence.
package subtitle

import (
	"regexp"
	"strings"

	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

// ChunkSize is the fixed window length, in runes, of one output chunk.
const ChunkSize = 102

var (
	// newlineRuns matches any run of newline/carriage-return characters.
	newlineRuns = regexp.MustCompile(`[\r\n]+`)

	// cueTimestamp matches an SRT cue timing line after newline collapsing:
	// two HH:MM:SS,mmm time codes separated by an arrow, with one optional
	// adjacent space on each side.
	cueTimestamp = regexp.MustCompile(` ?\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3} ?`)

	// italicTag matches an italic open or close tag with one optional
	// adjacent space on each side.
	italicTag = regexp.MustCompile(` ?</?i> ?`)
)

// Normalize strips structural markup from raw subtitle text: newline runs
// collapse to a single space, then cue timestamps and italic tags (each with
// one optional adjacent space per side) are removed.
func Normalize(raw string) string {
	text := newlineRuns.ReplaceAllString(raw, " ")
	text = cueTimestamp.ReplaceAllString(text, "")
	text = italicTag.ReplaceAllString(text, "")
	return text
}

// Chunks normalizes raw subtitle text and splits it into consecutive
// ChunkSize-rune windows, trimming surrounding whitespace from each window
// independently. Part numbers start at 1 and follow original character order.
// Input that is empty, or whitespace-only after normalization, yields an
// empty sequence rather than a single blank chunk.
func Chunks(raw string) []models.SubtitleChunk {
	normalized := Normalize(raw)
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	windows := splitWindows(normalized, ChunkSize)
	chunks := make([]models.SubtitleChunk, 0, len(windows))
	for i, window := range windows {
		chunks = append(chunks, models.SubtitleChunk{
			Text: strings.TrimSpace(window),
			Part: i + 1,
		})
	}
	return chunks
}

// splitWindows cuts text into consecutive n-rune windows with no overlap and
// no re-balancing; the final window may be shorter. Word and sentence
// boundaries are deliberately ignored. Concatenating the windows in order
// reproduces text exactly.
func splitWindows(text string, n int) []string {
	runes := []rune(text)
	windows := make([]string, 0, (len(runes)+n-1)/n)
	for start := 0; start < len(runes); start += n {
		end := start + n
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}
