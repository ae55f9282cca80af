package staging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mreshnaan/subtitle-harvester/internal/config"
)

// HTTPDownloader transfers archives over plain HTTP. The body is written to a
// temporary file in the destination directory and renamed into place, so the
// store's stability poll can never observe a half-written archive.
type HTTPDownloader struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPDownloader creates a downloader sharing the session's HTTP client.
func NewHTTPDownloader(httpClient *http.Client, userAgent string) *HTTPDownloader {
	return &HTTPDownloader{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Download fetches archiveURL into destPath.
func (d *HTTPDownloader) Download(ctx context.Context, archiveURL, destPath string) error {
	logger := config.GetLogger()

	req, err := http.NewRequestWithContext(ctx, "GET", archiveURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write archive body: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize archive: %w", err)
	}

	logger.Debug().Str("archive", destPath).Int64("bytes", written).Msg("Archive transfer complete")
	return nil
}
