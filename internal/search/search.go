// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the ClinicalTrials.gov v2 API and normalizes the
// returned records into types.StudyInfo.
//
// A failed search is always an error wrapping ErrTransport; it is never
// reported as an empty page, so callers can tell "nothing matched" from
// "could not search".
package search

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/trialscout/pkg/types"
)

var (
	// ErrTransport marks every network, HTTP status, and decoding failure.
	ErrTransport = errors.New("trials search failed")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("page size must be a positive integer")
)

// HTTPError reports a non-2xx response from the registry.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("trials API returned HTTP %d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		msg += " " + text
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is makes errors.Is(err, ErrTransport) hold for status failures.
func (e *HTTPError) Is(target error) bool { return target == ErrTransport }

// Page is one page of normalized results.
type Page struct {
	Studies []types.StudyInfo

	// TotalCount is set only when countTotal was requested and the
	// registry returned a count, which it does on the first page only.
	TotalCount *int

	// NextPageToken is echoed back as pageToken to fetch the next page.
	// Empty on the last page.
	NextPageToken string
}

// HasMore reports whether another page is available.
func (p Page) HasMore() bool { return p.NextPageToken != "" }
