package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/clearance"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/config"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// PageFetcher issues single GETs against the protected category pages,
// presenting the clearance token and its matching user-agent, and
// classifies each response as ok / blocked / http error.
type PageFetcher struct {
	client   *http.Client
	cfg      *config.FetcherConfig
	referer  string
	detector *BlockDetector
	logger   *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a PageFetcher. The referer is sent with every request;
// the site rejects bare requests without one.
func New(cfg *config.Config, logger *slog.Logger) *PageFetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetcher.TLSInsecure,
		},
		// Decompression is handled here so brotli works too.
		DisableCompression: true,
	}

	return &PageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Fetcher.RequestTimeout,
		},
		cfg:      &cfg.Fetcher,
		referer:  cfg.Site.BaseURL,
		detector: NewBlockDetector(cfg.Fetcher.BlockMarkers, logger),
		logger:   logger.With("component", "page_fetcher"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch issues one GET and classifies the response. Transport-level
// failures return an error; HTTP-level outcomes land in the result.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string, rec clearance.Record) (*types.FetchResult, error) {
	if err := f.wait(ctx, pageURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", rec.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", f.referer)
	req.AddCookie(&http.Cookie{Name: "cf_clearance", Value: rec.Token})

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusOK && len(body) == 0 {
		return nil, &types.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse}
	}

	result := f.classify(resp.StatusCode, body)

	f.logger.Debug("fetch complete",
		"url", pageURL,
		"status", resp.StatusCode,
		"classified", result.Status.String(),
		"size", len(body),
		"duration", time.Since(start),
	)
	return result, nil
}

// classify applies the fixed classification rule: non-200 is an HTTP
// error, 200 with a block indicator is blocked, anything else is ok.
func (f *PageFetcher) classify(statusCode int, body []byte) *types.FetchResult {
	if statusCode != http.StatusOK {
		return &types.FetchResult{Status: types.StatusHTTPError, StatusCode: statusCode}
	}
	if f.detector.IsBlockPage(body) {
		return &types.FetchResult{Status: types.StatusBlocked, StatusCode: statusCode, Body: body}
	}
	return &types.FetchResult{Status: types.StatusOK, StatusCode: statusCode, Body: body}
}

// wait enforces the per-host politeness delay between requests.
func (f *PageFetcher) wait(ctx context.Context, pageURL string) error {
	if f.cfg.PolitenessDelay <= 0 {
		return nil
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return &types.FetchError{URL: pageURL, Err: types.ErrInvalidURL}
	}

	f.mu.Lock()
	limiter, ok := f.limiters[u.Hostname()]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(f.cfg.PolitenessDelay), 1)
		f.limiters[u.Hostname()] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

// Close releases idle connections.
func (f *PageFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
