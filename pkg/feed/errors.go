package feed

import "errors"

// failure kinds shared by extractors, the store and the HTTP layer.
// everything wraps one of these sentinels so callers can map a failure
// to an exit code or HTTP status with errors.Is.
var (
	// ErrUnsupportedSource - URL matches no known music site
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrExtraction - required metadata or ids not found on the fetched page, or search had no results
	ErrExtraction = errors.New("extraction failed")
	// ErrUpstream - a network, page or API call did not complete
	ErrUpstream = errors.New("upstream request failed")
	// ErrValidation - malformed submission, missing field or rating out of range
	ErrValidation = errors.New("invalid request")
	// ErrConflict - an item with the same URL is already in the feed
	ErrConflict = errors.New("already in feed")
	// ErrNotFound - no item with the given id
	ErrNotFound = errors.New("item not found")
)
