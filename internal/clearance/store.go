package clearance

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// Record is one clearance token captured by a refresher. Immutable once
// written; only the most recently appended record for a site is current.
type Record struct {
	Token      string    `json:"cf_clearance"`
	UserAgent  string    `json:"user_agent"`
	CapturedAt time.Time `json:"captured_at,omitzero"`
}

// Store reads and appends clearance records in a shared JSON file. The
// file maps a site URL to an ordered list of records, newest last.
//
// Last-writer-wins: the design assumes a single scraper process per
// machine, so no file locking is done.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the given JSON file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With("component", "clearance_store"),
	}
}

// Path returns the on-disk location of the store file.
func (s *Store) Path() string { return s.path }

// Latest returns the most recently appended record for the site.
// A missing file, unreadable JSON, or a site with no records yields
// types.ErrStoreAbsent.
func (s *Store) Latest(siteURL string) (Record, error) {
	data, err := s.read()
	if err != nil {
		return Record{}, err
	}

	entries := data[s.matchKey(data, siteURL)]
	if len(entries) == 0 {
		return Record{}, types.ErrStoreAbsent
	}

	rec := entries[len(entries)-1]
	if rec.Token == "" {
		return Record{}, types.ErrStoreAbsent
	}
	return rec, nil
}

// Append adds a record for the site, creating the file if needed.
// The write is a whole-file atomic replace.
func (s *Store) Append(siteURL string, rec Record) error {
	data, err := s.read()
	if err != nil {
		if !errors.Is(err, types.ErrStoreAbsent) {
			return err
		}
		data = make(map[string][]Record)
	}

	key := s.matchKey(data, siteURL)
	if key == "" {
		key = siteURL
	}
	data[key] = append(data[key], rec)

	if err := s.write(data); err != nil {
		return err
	}

	s.logger.Debug("clearance record appended",
		"site", key,
		"records", len(data[key]),
		"captured_at", rec.CapturedAt,
	)
	return nil
}

// matchKey picks the store key for a site: an exact match, then a key
// sharing the site's hostname, then the lexicographically first key so
// repeated reads stay deterministic.
func (s *Store) matchKey(data map[string][]Record, siteURL string) string {
	if _, ok := data[siteURL]; ok {
		return siteURL
	}

	host := ""
	if u, err := url.Parse(siteURL); err == nil {
		host = u.Hostname()
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if host != "" {
		for _, k := range keys {
			if u, err := url.Parse(k); err == nil && u.Hostname() == host {
				return k
			}
		}
	}
	if len(keys) > 0 {
		return keys[0]
	}
	return ""
}

func (s *Store) read() (map[string][]Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrStoreAbsent
		}
		return nil, &types.StoreError{Path: s.path, Err: err}
	}
	if len(raw) == 0 {
		return nil, types.ErrStoreAbsent
	}

	var data map[string][]Record
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &types.StoreError{Path: s.path, Err: fmt.Errorf("decode store: %w", err)}
	}
	if len(data) == 0 {
		return nil, types.ErrStoreAbsent
	}
	return data, nil
}

func (s *Store) write(data map[string][]Record) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return &types.StoreError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.StoreError{Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".clearance-*.json")
	if err != nil {
		return &types.StoreError{Path: s.path, Err: err}
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &types.StoreError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &types.StoreError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &types.StoreError{Path: s.path, Err: err}
	}
	return nil
}
