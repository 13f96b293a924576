package parser

import (
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/config"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testMarkup = `<!DOCTYPE html>
<html>
<body>
<div class="container">
  <div class="row">
    <div class="col-lg-9 col-md-8 col-sm-8">
      <span class="cattxt">아파트임대</span> : 봉화읍 내성리 혜성타운 3룸 <img src="/images/icn_new.gif">
    </div>
    <div class="col-lg-3 col-md-4 col-sm-4">010-1234-5678</div>
  </div>
  <div class="row">
    <div class="col-lg-9 col-md-8 col-sm-8">
      <span class="cattxt">주택임대</span> : 봉성면 단독주택 마당 있음
    </div>
    <div class="col-lg-3 col-md-4 col-sm-4">
      054-673-1111 / 010-9876-5432
    </div>
  </div>
  <div class="row">
    <div class="col-lg-9 col-md-8 col-sm-8">
      <span class="cattxt">상가임대</span> : 읍내 사거리 상가 1층
    </div>
    <div class="col-lg-3 col-md-4 col-sm-4">문의 바람</div>
  </div>
</div>
</body>
</html>`

// Markup with malformed rows interleaved among well-formed ones.
const mixedMarkup = `<html><body>
  <div class="col-lg-9 col-md-8 col-sm-8">
    <span class="cattxt">아파트임대</span> : 첫 번째 정상 행
  </div>
  <div class="col-lg-3 col-md-4 col-sm-4">010-1111-2222</div>

  <!-- left column with no right sibling -->
  <div class="col-lg-9 col-md-8 col-sm-8">
    <span class="cattxt">아파트임대</span> : 전화 열이 없는 행
  </div>
  <div class="someother">misplaced</div>

  <div class="col-lg-9 col-md-8 col-sm-8">
    <span class="cattxt">주택임대</span> : 두 번째 정상 행
  </div>
  <div class="col-lg-3 col-md-4 col-sm-4">010-3333-4444</div>

  <!-- empty left column -->
  <div class="col-lg-9 col-md-8 col-sm-8"></div>
  <div class="col-lg-3 col-md-4 col-sm-4">no phone here</div>
</body></html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	cfg := config.DefaultConfig()
	e, err := NewExtractor(&cfg.Parser, testLogger)
	if err != nil {
		t.Fatalf("create extractor: %v", err)
	}
	return e
}

func TestExtract(t *testing.T) {
	e := newTestExtractor(t)

	records, err := e.Extract([]byte(testMarkup))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := []types.ListingRecord{
		{Category: "아파트임대", Description: "봉화읍 내성리 혜성타운 3룸", Phone: "010-1234-5678", IsNew: true},
		{Category: "주택임대", Description: "봉성면 단독주택 마당 있음", Phone: "054-673-1111, 010-9876-5432", IsNew: false},
		{Category: "상가임대", Description: "읍내 사거리 상가 1층", Phone: "", IsNew: false},
	}

	if !reflect.DeepEqual(records, want) {
		t.Errorf("extract mismatch:\n got %+v\nwant %+v", records, want)
	}
}

func TestExtractSkipsMalformedRows(t *testing.T) {
	e := newTestExtractor(t)

	records, err := e.Extract([]byte(mixedMarkup))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	// Two well-formed rows survive, in source order, regardless of where
	// the malformed ones sit.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].Description != "첫 번째 정상 행" {
		t.Errorf("first record out of order: %+v", records[0])
	}
	if records[1].Description != "두 번째 정상 행" {
		t.Errorf("second record out of order: %+v", records[1])
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := newTestExtractor(t)

	records, err := e.Extract([]byte("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestExtractKeepsPrefixlessDescription(t *testing.T) {
	e := newTestExtractor(t)

	// No cattxt span at all: the whole left-column text is the description.
	markup := `<html><body>
	  <div class="col-lg-9 col-md-8 col-sm-8">설명만 있는 행</div>
	  <div class="col-lg-3 col-md-4 col-sm-4">010-5555-6666</div>
	</body></html>`

	records, err := e.Extract([]byte(markup))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Category != "" {
		t.Errorf("expected empty category, got %q", records[0].Category)
	}
	if records[0].Description != "설명만 있는 행" {
		t.Errorf("unexpected description %q", records[0].Description)
	}
}

func TestFilterByCategory(t *testing.T) {
	records := []types.ListingRecord{
		{Category: "아파트임대", Description: "row1"},
		{Category: "상가임대", Description: "row2"},
		{Category: "아파트임대", Description: "row3"},
	}

	filtered := FilterByCategory(records, "아파트임대")

	if len(filtered) != 2 {
		t.Fatalf("expected 2 records, got %d", len(filtered))
	}
	if filtered[0].Description != "row1" || filtered[1].Description != "row3" {
		t.Errorf("filter broke ordering: %+v", filtered)
	}

	for _, rec := range filtered {
		found := false
		for _, orig := range records {
			if reflect.DeepEqual(rec, orig) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("filtered record %+v not in input", rec)
		}
	}
}

func TestFilterByCategoryEmptyInput(t *testing.T) {
	filtered := FilterByCategory(nil, "아파트임대")
	if filtered == nil || len(filtered) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", filtered)
	}
}

func TestFilterThenExtractOrderPreserved(t *testing.T) {
	e := newTestExtractor(t)

	records, err := e.Extract([]byte(testMarkup))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	filtered := FilterByCategory(records, "주택임대")
	if len(filtered) != 1 {
		t.Fatalf("expected 1 record, got %d", len(filtered))
	}
	if filtered[0].Phone != "054-673-1111, 010-9876-5432" {
		t.Errorf("unexpected phone %q", filtered[0].Phone)
	}
}
