package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// FileStore writes the per-page outputs as flat files in one directory:
// raw markup, the full extracted sequence, and the filtered subsequence.
// Every write is a whole-file atomic replace, never an append.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates the output directory if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StoreError{Path: dir, Err: err}
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With("component", "file_store"),
	}, nil
}

// SaveRawHTML writes the fetched markup for a category page.
func (s *FileStore) SaveRawHTML(page types.CategoryPage, markup []byte) error {
	path := filepath.Join(s.dir, fmt.Sprintf("listing_cat%d.html", page.ID))
	if err := WriteFileAtomic(path, markup); err != nil {
		return err
	}
	s.logger.Info("raw markup saved", "cat", page.ID, "path", path, "bytes", len(markup))
	return nil
}

// SaveListings writes the full extracted sequence for a category page.
func (s *FileStore) SaveListings(page types.CategoryPage, records []types.ListingRecord) error {
	path := filepath.Join(s.dir, fmt.Sprintf("listing_cat%d.json", page.ID))
	return s.saveJSON(path, page, records)
}

// SaveFiltered writes the label-filtered subsequence for a category page.
func (s *FileStore) SaveFiltered(page types.CategoryPage, records []types.ListingRecord) error {
	path := filepath.Join(s.dir, fmt.Sprintf("listing_cat%d_%s.json", page.ID, page.ExpectedLabel))
	return s.saveJSON(path, page, records)
}

func (s *FileStore) saveJSON(path string, page types.CategoryPage, records []types.ListingRecord) error {
	if records == nil {
		records = []types.ListingRecord{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &types.StoreError{Path: path, Err: err}
	}
	if err := WriteFileAtomic(path, append(raw, '\n')); err != nil {
		return err
	}
	s.logger.Info("listings saved", "cat", page.ID, "path", path, "records", len(records))
	return nil
}

// LoadFiltered reads a previously written filtered subsequence back.
// A missing file is an empty set, not an error: the summary can be
// rebuilt even when one category never produced data.
func (s *FileStore) LoadFiltered(page types.CategoryPage) ([]types.ListingRecord, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("listing_cat%d_%s.json", page.ID, page.ExpectedLabel))
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.ListingRecord{}, nil
		}
		return nil, &types.StoreError{Path: path, Err: err}
	}

	var records []types.ListingRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &types.StoreError{Path: path, Err: err}
	}
	return records, nil
}

// WriteFileAtomic replaces path with data via a temp file and rename in
// the same directory.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &types.StoreError{Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &types.StoreError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &types.StoreError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &types.StoreError{Path: path, Err: err}
	}
	return nil
}
