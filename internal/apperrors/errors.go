package apperrors

import "fmt"

// ErrNoLanguageTrack is returned when a listing's subtitle-options table has
// no row for the target language. This is a normal skip condition, not a fault.
type ErrNoLanguageTrack struct {
	Language string
	Listing  string
}

// Error implements the error interface.
func (e *ErrNoLanguageTrack) Error() string {
	return fmt.Sprintf("no %q subtitle track for listing %q", e.Language, e.Listing)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoLanguageTrack) Is(target error) bool {
	_, ok := target.(*ErrNoLanguageTrack)
	return ok
}

// NewNoLanguageTrackError creates a new ErrNoLanguageTrack.
func NewNoLanguageTrackError(language, listing string) *ErrNoLanguageTrack {
	return &ErrNoLanguageTrack{Language: language, Listing: listing}
}

// ErrNoSubtitleEntry is returned when a downloaded archive contains no entry
// with the subtitle-file extension.
type ErrNoSubtitleEntry struct {
	Archive   string
	FileCount int
}

// Error implements the error interface.
func (e *ErrNoSubtitleEntry) Error() string {
	return fmt.Sprintf("archive %s has no subtitle document (searched %d entries)", e.Archive, e.FileCount)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoSubtitleEntry) Is(target error) bool {
	_, ok := target.(*ErrNoSubtitleEntry)
	return ok
}

// ErrTransferFailed is returned when a page load or archive download fails.
// It is recoverable at the listing level: the collector skips the listing.
type ErrTransferFailed struct {
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *ErrTransferFailed) Error() string {
	return fmt.Sprintf("transfer failed for %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ErrTransferFailed) Unwrap() error {
	return e.Cause
}

// Is allows for error checking with errors.Is().
func (e *ErrTransferFailed) Is(target error) bool {
	_, ok := target.(*ErrTransferFailed)
	return ok
}

// NewTransferFailedError creates a new ErrTransferFailed wrapping cause.
func NewTransferFailedError(url string, cause error) *ErrTransferFailed {
	return &ErrTransferFailed{URL: url, Cause: cause}
}

// ErrStagingUnavailable is returned when the staging directory tree cannot be
// created. No listing can make progress without staging space, so this aborts
// the whole run.
type ErrStagingUnavailable struct {
	Dir   string
	Cause error
}

// Error implements the error interface.
func (e *ErrStagingUnavailable) Error() string {
	return fmt.Sprintf("staging directory %s unavailable: %v", e.Dir, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *ErrStagingUnavailable) Unwrap() error {
	return e.Cause
}

// Is allows for error checking with errors.Is().
func (e *ErrStagingUnavailable) Is(target error) bool {
	_, ok := target.(*ErrStagingUnavailable)
	return ok
}
