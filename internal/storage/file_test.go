package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir, testLogger)
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}
	return s, dir
}

func testPage() types.CategoryPage {
	return types.CategoryPage{ID: 5, ExpectedLabel: "아파트임대", URL: "https://www.bonghwa.co.kr/listing.cfm?cat=5"}
}

func TestSaveRawHTML(t *testing.T) {
	s, dir := newTestFileStore(t)

	markup := []byte("<html><body>목록</body></html>")
	if err := s.SaveRawHTML(testPage(), markup); err != nil {
		t.Fatalf("save raw html: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "listing_cat5.html"))
	if err != nil {
		t.Fatalf("read raw html: %v", err)
	}
	if string(got) != string(markup) {
		t.Errorf("raw markup mismatch: %q", got)
	}
}

func TestSaveListingsRoundTrip(t *testing.T) {
	s, dir := newTestFileStore(t)

	records := []types.ListingRecord{
		{Category: "아파트임대", Description: "봉화읍 혜성타운", Phone: "010-1234-5678", IsNew: true},
		{Category: "상가임대", Description: "읍내 상가", Phone: "", IsNew: false},
	}
	if err := s.SaveListings(testPage(), records); err != nil {
		t.Fatalf("save listings: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "listing_cat5.json"))
	if err != nil {
		t.Fatalf("read listings: %v", err)
	}

	var got []types.ListingRecord
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode listings: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestSaveFilteredNilBecomesEmptyArray(t *testing.T) {
	s, dir := newTestFileStore(t)

	if err := s.SaveFiltered(testPage(), nil); err != nil {
		t.Fatalf("save filtered: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "listing_cat5_아파트임대.json"))
	if err != nil {
		t.Fatalf("read filtered: %v", err)
	}
	if string(raw) != "[]\n" {
		t.Errorf("expected JSON empty array, got %q", raw)
	}
}

func TestLoadFiltered(t *testing.T) {
	s, _ := newTestFileStore(t)

	records := []types.ListingRecord{
		{Category: "아파트임대", Description: "임대 물건", Phone: "010-0000-0000"},
	}
	if err := s.SaveFiltered(testPage(), records); err != nil {
		t.Fatalf("save filtered: %v", err)
	}

	got, err := s.LoadFiltered(testPage())
	if err != nil {
		t.Fatalf("load filtered: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestLoadFilteredMissingFile(t *testing.T) {
	s, _ := newTestFileStore(t)

	got, err := s.LoadFiltered(testPage())
	if err != nil {
		t.Fatalf("load filtered: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice for missing file, got %v", got)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := WriteFileAtomic(path, []byte("first version, longer")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected whole-file replace, got %q", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file in %s, found %d entries", dir, len(entries))
	}
}
