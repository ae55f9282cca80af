// Package staging maps archive URLs to local files under a staging directory
// tree. Presence on disk is the cache-hit signal: a given archive filename is
// downloaded at most once and reused on every later run, with no expiry and
// no staleness detection.
package staging

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/metrics"
	"github.com/mreshnaan/subtitle-harvester/internal/models"
)

// Downloader initiates a transfer of archiveURL into destPath. Implementations
// may complete synchronously (plain HTTP) or out-of-band (a browser session's
// download directory); the store never assumes completion and instead
// observes the filesystem for the finished artifact.
type Downloader interface {
	Download(ctx context.Context, archiveURL, destPath string) error
}

// Store is the on-disk download cache.
type Store struct {
	root         string
	downloader   Downloader
	pollInterval time.Duration
	transferWait time.Duration
	retries      int
}

// NewStore creates the staging root directory and returns the store. A root
// that cannot be created is fatal to the whole run: no listing can make
// progress without staging space.
func NewStore(cfg *config.Config, d Downloader) (*Store, error) {
	root := cfg.StagingDir
	if root == "" {
		root = "subtitles"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &apperrors.ErrStagingUnavailable{Dir: root, Cause: err}
	}

	pollInterval := 250 * time.Millisecond
	if cfg.Download.PollInterval != "" {
		if parsed, err := time.ParseDuration(cfg.Download.PollInterval); err == nil {
			pollInterval = parsed
		}
	}
	transferWait := 60 * time.Second
	if cfg.Download.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.Download.Timeout); err == nil {
			transferWait = parsed
		}
	}

	return &Store{
		root:         root,
		downloader:   d,
		pollInterval: pollInterval,
		transferWait: transferWait,
		retries:      cfg.Download.Retries,
	}, nil
}

// Root returns the staging root directory.
func (s *Store) Root() string {
	return s.root
}

// Stage ensures the archive at archiveURL exists locally and returns its
// artifact. A file already present at the expected path is a cache hit and
// skips the network entirely; otherwise the transfer runs under a per-attempt
// timeout with retries, and completion is detected by polling the target path
// until the artifact exists with a stable size.
func (s *Store) Stage(ctx context.Context, archiveURL string) (*models.ArchiveArtifact, error) {
	logger := config.GetLogger()

	stem, ext := archiveName(archiveURL)
	dir := filepath.Join(s.root, stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &apperrors.ErrStagingUnavailable{Dir: dir, Cause: err}
	}

	archivePath := filepath.Join(dir, stem+ext)

	if _, err := os.Stat(archivePath); err == nil {
		logger.Info().Str("archive", archivePath).Msg("Archive already staged, skipping download")
		metrics.DownloadsTotal.WithLabelValues("hit").Inc()
		return &models.ArchiveArtifact{
			ArchivePath:   archivePath,
			ExtractionDir: dir,
			CacheHit:      true,
		}, nil
	}

	logger.Info().Str("url", archiveURL).Str("archive", archivePath).Msg("Downloading archive")

	attemptTimeout := timeout.With[any](s.transferWait)
	retry := retrypolicy.Builder[any]().
		WithBackoff(time.Second, 10*time.Second).
		WithMaxRetries(s.retries).
		Build()

	err := failsafe.NewExecutor[any](retry, attemptTimeout).
		WithContext(ctx).
		Run(func() error {
			if err := s.downloader.Download(ctx, archiveURL, archivePath); err != nil {
				return err
			}
			return s.waitForArtifact(ctx, archivePath)
		})
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.NewTransferFailedError(archiveURL, err)
	}

	metrics.DownloadsTotal.WithLabelValues("miss").Inc()
	return &models.ArchiveArtifact{
		ArchivePath:   archivePath,
		ExtractionDir: dir,
		CacheHit:      false,
	}, nil
}

// waitForArtifact polls the target path until the file exists with a non-zero
// size that holds steady across two consecutive polls. A fixed wall-clock
// sleep would either race an unfinished transfer or always pay the maximum
// wait; polling pays only for what the transfer actually takes.
func (s *Store) waitForArtifact(ctx context.Context, path string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastSize int64 = -1
	for {
		info, err := os.Stat(path)
		if err == nil && info.Size() > 0 && info.Size() == lastSize {
			return nil
		}
		if err == nil {
			lastSize = info.Size()
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// archiveName derives the staging name from the URL's last path segment.
// The extension is preserved for known archive types, defaulting to .zip.
func archiveName(archiveURL string) (stem, ext string) {
	segment := archiveURL
	if u, err := url.Parse(archiveURL); err == nil && u.Path != "" {
		segment = u.Path
	}
	if idx := strings.Index(segment, "?"); idx != -1 {
		segment = segment[:idx]
	}
	segment = path.Base(segment)

	ext = strings.ToLower(path.Ext(segment))
	switch ext {
	case ".zip", ".rar":
		stem = strings.TrimSuffix(segment, path.Ext(segment))
	default:
		ext = ".zip"
		stem = strings.TrimSuffix(segment, path.Ext(segment))
	}

	if stem == "" || stem == "." || stem == "/" {
		stem = "archive"
	}
	return stem, ext
}
