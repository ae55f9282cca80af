package navigator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/net/html/charset"

	"github.com/mreshnaan/subtitle-harvester/internal/apperrors"
	"github.com/mreshnaan/subtitle-harvester/internal/cache"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
)

// HTTPNavigator implements Navigator over a plain HTTP client with a
// decompressing transport. Fetched page bodies are cached by URL in the
// configured page cache, so revisits within a run skip the network.
type HTTPNavigator struct {
	httpClient *http.Client
	userAgent  string
	pages      cache.PageStore
	retry      retrypolicy.RetryPolicy[[]byte]
}

// NewHTTPClient builds the shared HTTP client: timeout and optional proxy from
// config, decompressing transport on top. The same client serves page loads
// and archive transfers.
func NewHTTPClient(cfg *config.Config) *http.Client {
	timeout := 30 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		} else {
			timeout = parsedTimeout
		}
	}

	// Clone DefaultTransport to preserve its settings (timeouts, connection
	// pooling, HTTP/2) and override only the proxy.
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newDecodingTransport(baseTransport),
	}
}

// NewHTTP creates an HTTP navigation session. The page store may be nil to
// disable page-body caching.
func NewHTTP(cfg *config.Config, httpClient *http.Client, pages cache.PageStore) *HTTPNavigator {
	retry := retrypolicy.Builder[[]byte]().
		WithBackoff(500*time.Millisecond, 5*time.Second).
		WithMaxRetries(2).
		Build()

	return &HTTPNavigator{
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
		pages:      pages,
		retry:      retry,
	}
}

// Open navigates to pageURL and parses the response into a document handle.
// Transport faults come back as ErrTransferFailed so the collector can treat
// them as a listing-level skip.
func (n *HTTPNavigator) Open(ctx context.Context, pageURL string) (*Page, error) {
	body, err := n.loadBody(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// The site serves pages in whatever encoding it likes; bring everything
	// to UTF-8 before goquery sees it.
	utf8Body, err := charset.NewReader(bytes.NewReader(body), "")
	if err != nil {
		return nil, fmt.Errorf("detect page encoding for %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageURL, err)
	}

	return NewPage(pageURL, doc), nil
}

// Close releases the page cache connection if one is attached.
func (n *HTTPNavigator) Close() error {
	if n.pages != nil {
		return n.pages.Close()
	}
	return nil
}

// loadBody returns the page body from cache when present, fetching (with
// retries) and caching it otherwise.
func (n *HTTPNavigator) loadBody(ctx context.Context, pageURL string) ([]byte, error) {
	logger := config.GetLogger()

	if n.pages != nil {
		if cached, found := n.pages.GetPage(pageURL); found {
			logger.Debug().Str("url", pageURL).Msg("Page served from cache")
			return cached, nil
		}
	}

	body, err := failsafe.NewExecutor[[]byte](n.retry).
		WithContext(ctx).
		Get(func() ([]byte, error) {
			return n.fetchPage(ctx, pageURL)
		})
	if err != nil {
		return nil, apperrors.NewTransferFailedError(pageURL, err)
	}

	if n.pages != nil {
		n.pages.StorePage(pageURL, body)
	}

	return body, nil
}

// fetchPage performs an HTTP GET and returns the response body bytes.
func (n *HTTPNavigator) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
