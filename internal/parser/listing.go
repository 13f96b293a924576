package parser

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/config"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extractor parses category-page markup into ordered listing records.
//
// Each row is a left column (category label + description) followed by
// a sibling right column (phone numbers). Rows whose structure does not
// yield a description or a phone are dropped silently; the source
// markup is not guaranteed uniform.
type Extractor struct {
	cfg     *config.ParserConfig
	phoneRe *regexp.Regexp
	logger  *slog.Logger
}

// NewExtractor creates an extractor from the configured selectors.
func NewExtractor(cfg *config.ParserConfig, logger *slog.Logger) (*Extractor, error) {
	phoneRe, err := regexp.Compile(cfg.PhonePattern)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:     cfg,
		phoneRe: phoneRe,
		logger:  logger.With("component", "listing_extractor"),
	}, nil
}

// Extract returns all well-formed listing records in document order.
func (e *Extractor) Extract(markup []byte) ([]types.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var records []types.ListingRecord
	skipped := 0

	doc.Find(e.cfg.RowSelector).Each(func(i int, left *goquery.Selection) {
		rec, ok := e.extractRow(left)
		if !ok {
			skipped++
			return
		}
		records = append(records, rec)
	})

	e.logger.Debug("extraction complete", "records", len(records), "skipped", skipped)
	return records, nil
}

// extractRow builds one record from a left column and its sibling
// right column. ok is false for rows to skip.
func (e *Extractor) extractRow(left *goquery.Selection) (types.ListingRecord, bool) {
	category := collapseSpace(left.Find(e.cfg.CategorySelector).First().Text())
	description := e.stripCategoryPrefix(collapseSpace(left.Text()), category)

	right := left.NextFiltered(e.cfg.PhoneColSelector)
	if right.Length() == 0 {
		return types.ListingRecord{}, false
	}
	phone := strings.Join(e.phoneRe.FindAllString(right.Text(), -1), ", ")

	if description == "" && phone == "" {
		return types.ListingRecord{}, false
	}

	return types.ListingRecord{
		Category:    category,
		Description: description,
		Phone:       phone,
		IsNew:       left.Find(e.cfg.NewMarkerSelector).Length() > 0,
	}, true
}

// stripCategoryPrefix removes the "<category> : " lead-in the site
// prints before each description.
func (e *Extractor) stripCategoryPrefix(text, category string) string {
	if category == "" {
		return text
	}
	rest, found := strings.CutPrefix(text, category)
	if !found {
		return text
	}
	rest = strings.TrimLeft(rest, " \t")
	rest = strings.TrimPrefix(rest, ":")
	return strings.TrimLeft(rest, " \t")
}

// collapseSpace trims and folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
