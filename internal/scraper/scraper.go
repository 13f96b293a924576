package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/clearance"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/config"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/export"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/parser"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/storage"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// TokenSource yields the current clearance record for a site.
type TokenSource interface {
	Latest(siteURL string) (clearance.Record, error)
}

// Fetcher issues one classified GET against a category page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, rec clearance.Record) (*types.FetchResult, error)
}

// Outputs receives the per-page artifacts.
type Outputs interface {
	SaveRawHTML(page types.CategoryPage, markup []byte) error
	SaveListings(page types.CategoryPage, records []types.ListingRecord) error
	SaveFiltered(page types.CategoryPage, records []types.ListingRecord) error
}

// Scraper drives the whole run: fetch each category page under the
// single-refresh policy, extract and filter its records, write the
// artifacts, and export the summary document.
type Scraper struct {
	cfg       *config.Config
	tokens    TokenSource
	fetcher   Fetcher
	refresher clearance.Refresher
	extractor *parser.Extractor
	outputs   Outputs
	sink      storage.Sink // optional
	exporter  *export.Exporter
	logger    *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithSink mirrors filtered records into an extra storage backend.
func WithSink(sink storage.Sink) Option {
	return func(s *Scraper) { s.sink = sink }
}

// New wires a Scraper from its collaborators.
func New(
	cfg *config.Config,
	tokens TokenSource,
	fetcher Fetcher,
	refresher clearance.Refresher,
	extractor *parser.Extractor,
	outputs Outputs,
	exporter *export.Exporter,
	logger *slog.Logger,
	opts ...Option,
) *Scraper {
	s := &Scraper{
		cfg:       cfg,
		tokens:    tokens,
		fetcher:   fetcher,
		refresher: refresher,
		extractor: extractor,
		outputs:   outputs,
		exporter:  exporter,
		logger:    logger.With("component", "scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPage retrieves one category page's markup under the refresh
// policy: try the cached token, refresh on block or HTTP error, retry
// exactly once. An absent store forces the refresh up front, which
// spends the page's single refresh budget.
func (s *Scraper) FetchPage(ctx context.Context, page types.CategoryPage) ([]byte, error) {
	site := s.cfg.Site.BaseURL
	refreshed := false

	rec, err := s.tokens.Latest(site)
	if err != nil {
		if !errors.Is(err, types.ErrStoreAbsent) {
			return nil, err
		}
		s.logger.Info("no cached clearance token, refreshing first", "cat", page.ID)
		if rec, err = s.refresh(ctx, site); err != nil {
			return nil, err
		}
		refreshed = true
	}

	res, err := s.fetcher.Fetch(ctx, page.URL, rec)
	if err != nil {
		return nil, err
	}
	if res.OK() {
		return res.Body, nil
	}

	if refreshed {
		return nil, &types.StillBlockedError{URL: page.URL, StatusCode: res.StatusCode}
	}

	s.logger.Warn("page blocked with cached token, refreshing",
		"cat", page.ID,
		"classified", res.Status.String(),
		"status", res.StatusCode,
	)
	if rec, err = s.refresh(ctx, site); err != nil {
		return nil, err
	}

	res, err = s.fetcher.Fetch(ctx, page.URL, rec)
	if err != nil {
		return nil, err
	}
	if res.OK() {
		return res.Body, nil
	}
	return nil, &types.StillBlockedError{URL: page.URL, StatusCode: res.StatusCode}
}

// refresh invokes the refresher against the site base URL, then
// re-reads the store: the fresh record is observed through the shared
// store, which the refresher updates.
func (s *Scraper) refresh(ctx context.Context, site string) (clearance.Record, error) {
	if _, err := s.refresher.Refresh(ctx, site); err != nil {
		return clearance.Record{}, err
	}
	rec, err := s.tokens.Latest(site)
	if err != nil {
		return clearance.Record{}, &types.RefreshError{SiteURL: site, Err: fmt.Errorf("no record after refresh: %w", err)}
	}
	return rec, nil
}

// ProcessPage runs one category page end to end and returns its
// filtered records.
func (s *Scraper) ProcessPage(ctx context.Context, page types.CategoryPage) ([]types.ListingRecord, error) {
	markup, err := s.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := s.outputs.SaveRawHTML(page, markup); err != nil {
		return nil, err
	}

	records, err := s.extractor.Extract(markup)
	if err != nil {
		return nil, &types.ParseError{URL: page.URL, Err: err}
	}
	if err := s.outputs.SaveListings(page, records); err != nil {
		return nil, err
	}

	filtered := parser.FilterByCategory(records, page.ExpectedLabel)
	if err := s.outputs.SaveFiltered(page, filtered); err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.Store(page, filtered); err != nil {
			return nil, err
		}
	}

	s.logger.Info("page processed",
		"cat", page.ID,
		"extracted", len(records),
		"filtered", len(filtered),
		"label", page.ExpectedLabel,
	)
	return filtered, nil
}

// Run processes every configured category page sequentially, isolating
// per-page failures, then exports the summary document when all pages
// succeeded. The returned error joins all per-page failures.
func (s *Scraper) Run(ctx context.Context) error {
	blocks := make([]export.PageListings, 0, len(s.cfg.Site.Pages))
	var errs []error

	for _, page := range s.cfg.Site.Pages {
		filtered, err := s.ProcessPage(ctx, page)
		if err != nil {
			s.logger.Error("page failed", "cat", page.ID, "error", err)
			errs = append(errs, fmt.Errorf("cat=%d: %w", page.ID, err))
			continue
		}
		blocks = append(blocks, export.PageListings{Page: page, Records: filtered})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// The summary lists cat=7 before cat=5 regardless of fetch order.
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Page.ID > blocks[j].Page.ID })

	doc := s.exporter.Build(blocks...)
	if err := s.exporter.Write(doc); err != nil {
		return err
	}
	return nil
}
