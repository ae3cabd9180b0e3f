package metabrainz

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a non-successful HTTP response from either API.
type Error struct {
	StatusCode int    // HTTP status code
	URL        string // Request URL without query string
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("metabrainz: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is an *Error with the same status code, or
// ErrNotFound for a 404.
func (e *Error) Is(target error) bool {
	if target == ErrNotFound {
		return e.StatusCode == http.StatusNotFound
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// Temporary returns true if the request should be retried.
//
// Rate limiting (429, MusicBrainz answers 503 for that too) and server
// errors are temporary.
func (e *Error) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Predefined errors for common cases.
var (
	// ErrNotFound matches responses with status 404. AcousticBrainz answers
	// 404 for recordings it never analysed.
	ErrNotFound = errors.New("metabrainz: not found")

	// ErrNoMatch is returned when a recording search has no results.
	ErrNoMatch = errors.New("metabrainz: no matching recording")

	// ErrInvalidMBID is returned for identifiers that are not UUIDs.
	ErrInvalidMBID = errors.New("metabrainz: invalid mbid")
)

// IsTemporary reports whether err is worth retrying on a later run.
// Definitive answers (no match, not found, bad id) are not.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoMatch) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidMBID) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
