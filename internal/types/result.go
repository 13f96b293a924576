package types

import "fmt"

// FetchStatus classifies a single page-fetch response.
type FetchStatus int

const (
	// StatusOK means the page came back with usable markup.
	StatusOK FetchStatus = iota

	// StatusBlocked means HTTP 200 but the body is a challenge/block page.
	StatusBlocked

	// StatusHTTPError means a non-200 HTTP status.
	StatusHTTPError
)

func (s FetchStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBlocked:
		return "blocked"
	case StatusHTTPError:
		return "http_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// FetchResult is the classified outcome of one GET against a category page.
type FetchResult struct {
	Status FetchStatus

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Body holds the response markup. Populated for StatusOK and,
	// for diagnostics, on StatusBlocked.
	Body []byte
}

// OK reports whether the result carries usable markup.
func (r *FetchResult) OK() bool {
	return r.Status == StatusOK
}
