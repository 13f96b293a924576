package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/storage"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// PageListings pairs a category page with its filtered records.
type PageListings struct {
	Page    types.CategoryPage
	Records []types.ListingRecord
}

// Exporter renders the two filtered category sets into one numbered
// plain-text summary document.
type Exporter struct {
	path      string
	newMarker string
	logger    *slog.Logger
}

// NewExporter creates an exporter writing to path. newMarker is the
// literal printed on freshly posted rows.
func NewExporter(path, newMarker string, logger *slog.Logger) *Exporter {
	return &Exporter{
		path:      path,
		newMarker: newMarker,
		logger:    logger.With("component", "summary_exporter"),
	}
}

// Build renders the document, one block per category in the given
// order (cat=7 before cat=5 for this site), numbering 1-based per
// category in input order. Deterministic: identical inputs produce
// byte-identical output.
func (e *Exporter) Build(blocks ...PageListings) string {
	var b strings.Builder
	for _, block := range blocks {
		e.writeBlock(&b, block)
	}
	return b.String()
}

func (e *Exporter) writeBlock(b *strings.Builder, pl PageListings) {
	fmt.Fprintf(b, "cat=%d (%s) 총 %d건\n", pl.Page.ID, pl.Page.ExpectedLabel, len(pl.Records))
	for i, rec := range pl.Records {
		marker := ""
		if rec.IsNew {
			marker = e.newMarker
		}
		line := fmt.Sprintf("[%d-%d] %s | %s | %s", pl.Page.ID, i+1, rec.Description, rec.Phone, marker)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
}

// Write replaces the summary file with the document (atomic whole-file
// replace, UTF-8).
func (e *Exporter) Write(doc string) error {
	if err := storage.WriteFileAtomic(e.path, []byte(doc)); err != nil {
		return err
	}
	e.logger.Info("summary written", "path", e.path, "bytes", len(doc))
	return nil
}
