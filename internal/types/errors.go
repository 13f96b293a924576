package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrStoreAbsent   = errors.New("clearance store absent or empty")
	ErrEmptyResponse = errors.New("empty response body")
	ErrInvalidURL    = errors.New("invalid URL")
)

// FetchError wraps errors that occur while fetching a category page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RefreshError wraps a failed clearance-token refresh. The refresher is
// an expensive interactive collaborator, so this is fatal for the
// current page.
type RefreshError struct {
	SiteURL string
	Err     error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("clearance refresh failed for %s: %v", e.SiteURL, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// StillBlockedError means the page remained blocked (or kept returning a
// non-200 status) after the single refresh-and-retry this scraper allows.
type StillBlockedError struct {
	URL        string
	StatusCode int
}

func (e *StillBlockedError) Error() string {
	return fmt.Sprintf("still blocked after refresh for %s (last status %d)", e.URL, e.StatusCode)
}

// ParseError wraps errors that occur while parsing page markup.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError wraps errors from the clearance store or output storage.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
