// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscout/internal/httputil"
	"github.com/pdiddy/trialscout/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testClient(ts *httptest.Server) *Client {
	c := NewClient(types.SearchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "trialscout-test", MaxRetries: 1},
		BaseURL:    ts.URL,
	})
	c.HTTP = ts.Client()
	return c
}

func studyJSON(id, title, start string) string {
	return fmt.Sprintf(`{"protocolSection":{"identificationModule":{"nctId":%q,"briefTitle":%q},"statusModule":{"startDateStruct":{"date":%q}}}}`, id, title, start)
}

func serveJSON(t *testing.T, body string, capture *[]*http.Request) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = append(*capture, r)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Request construction ---

func TestSearchRequestConstruction(t *testing.T) {
	var reqs []*http.Request
	ts := serveJSON(t, `{"studies":[]}`, &reqs)

	c := testClient(ts)
	c.APIKey = "k-123"
	_, err := c.Search(context.Background(), Parameters{
		"query.cond":           "asthma",
		"query.term":           "",
		"filter.overallStatus": []string{"RECRUITING", "NOT_YET_RECRUITING"},
		"pageSize":             999,
	}, 15)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	r := reqs[0]
	assert.Equal(t, "/studies", r.URL.Path)
	q := r.URL.Query()
	assert.Equal(t, "asthma", q.Get("query.cond"))
	assert.Equal(t, "RECRUITING,NOT_YET_RECRUITING", q.Get("filter.overallStatus"))
	assert.Equal(t, "15", q.Get("pageSize"), "explicit page size wins")
	assert.Equal(t, "json", q.Get("format"))
	assert.NotContains(t, q, "query.term", "empty values are omitted")
	assert.Equal(t, "trialscout-test", r.Header.Get("User-Agent"))
	assert.Equal(t, "k-123", r.Header.Get("x-api-key"))
}

func TestSearchInvalidPageSize(t *testing.T) {
	c := &Client{BaseURL: "http://unused.invalid"}
	for _, size := range []int{0, -1} {
		_, err := c.Search(context.Background(), Parameters{"query.cond": "x"}, size)
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	}
}

// --- Response handling ---

func TestSearchResponseShapes(t *testing.T) {
	tests := []struct {
		name      string
		params    Parameters
		body      string
		wantIDs   []string
		wantTotal *int
		wantToken string
	}{
		{
			name:      "studies with count and token",
			params:    Parameters{"countTotal": true},
			body:      `{"totalCount": 42, "nextPageToken": "abc", "studies": [` + studyJSON("NCT1", "One", "2020-01-01") + `,` + studyJSON("NCT2", "Two", "2021-01-01") + `]}`,
			wantIDs:   []string{"NCT1", "NCT2"},
			wantTotal: intPtr(42),
			wantToken: "abc",
		},
		{
			name:    "count ignored when not requested",
			params:  Parameters{},
			body:    `{"totalCount": 42, "studies": [` + studyJSON("NCT1", "One", "") + `]}`,
			wantIDs: []string{"NCT1"},
		},
		{
			name:    "missing studies is zero results",
			params:  Parameters{},
			body:    `{"totalCount": 0}`,
			wantIDs: []string{},
		},
		{
			name:    "non-array studies is zero results",
			params:  Parameters{},
			body:    `{"studies": {"unexpected": true}}`,
			wantIDs: []string{},
		},
		{
			name:    "null studies is zero results",
			params:  Parameters{},
			body:    `{"studies": null}`,
			wantIDs: []string{},
		},
		{
			name:    "empty protocol section tolerated",
			params:  Parameters{},
			body:    `{"studies": [{"protocolSection": {}}, {}]}`,
			wantIDs: []string{"", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serveJSON(t, tt.body, nil)
			page, err := testClient(ts).Search(context.Background(), tt.params, 10)
			require.NoError(t, err)

			ids := make([]string, len(page.Studies))
			for i, s := range page.Studies {
				ids[i] = s.NCTNumber
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, page.TotalCount)
			assert.Equal(t, tt.wantToken, page.NextPageToken)
			assert.Equal(t, tt.wantToken != "", page.HasMore())
		})
	}
}

// --- Failure modes ---

func TestSearchHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"message":"unknown field query.foo"}`},
		{"server error", http.StatusInternalServerError, ""},
		{"throttled after retries", http.StatusTooManyRequests, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			_, err := testClient(ts).Search(context.Background(), Parameters{"query.cond": "x"}, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Contains(t, err.Error(), fmt.Sprintf("HTTP %d", tt.status))
			if tt.body != "" {
				assert.Contains(t, httpErr.Body, "unknown field")
			}
		})
	}
}

func TestSearchMalformedJSON(t *testing.T) {
	ts := serveJSON(t, `{"studies": [`, nil)
	_, err := testClient(ts).Search(context.Background(), Parameters{}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "parsing")
}

func TestSearchNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := testClient(ts)
	ts.Close()

	_, err := c.Search(context.Background(), Parameters{}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSearchTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(ts).Search(ctx, Parameters{}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- Pagination ---

func TestSearchAllFollowsTokens(t *testing.T) {
	var reqs []*http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs = append(reqs, r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"totalCount": 3, "nextPageToken": "p2", "studies": [`+studyJSON("NCT1", "A", "")+`]}`)
		case "p2":
			fmt.Fprint(w, `{"nextPageToken": "p3", "studies": [`+studyJSON("NCT2", "B", "")+`]}`)
		default:
			fmt.Fprint(w, `{"studies": [`+studyJSON("NCT3", "C", "")+`]}`)
		}
	}))
	defer ts.Close()

	params := Parameters{"query.cond": "asthma", "countTotal": true}
	page, err := testClient(ts).SearchAll(context.Background(), params, 1, 0)
	require.NoError(t, err)

	require.Len(t, page.Studies, 3)
	assert.Equal(t, "NCT3", page.Studies[2].NCTNumber)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 3, *page.TotalCount)
	assert.False(t, page.HasMore())

	require.Len(t, reqs, 3)
	first := reqs[0].URL.Query()
	for _, r := range reqs[1:] {
		q := r.URL.Query()
		assert.NotEmpty(t, q.Get("pageToken"))
		assert.Empty(t, q.Get("countTotal"), "count flag is sent on the first page only")
		q.Del("pageToken")
		want := first
		want.Del("countTotal")
		assert.Equal(t, want, q)
	}
}

func TestSearchAllRespectsMaxPages(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"nextPageToken": "t%d", "studies": [%s]}`, calls, studyJSON(fmt.Sprintf("NCT%d", calls), "x", ""))
	}))
	defer ts.Close()

	page, err := testClient(ts).SearchAll(context.Background(), Parameters{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, page.Studies, 2)
	assert.Equal(t, "t2", page.NextPageToken)
}

func TestSearchAllPropagatesPageFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"nextPageToken": "p2", "studies": []}`)
	}))
	defer ts.Close()

	_, err := testClient(ts).SearchAll(context.Background(), Parameters{}, 5, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, strings.Contains(err.Error(), "page 2"))
}

// --- Single study ---

func TestFetch(t *testing.T) {
	var reqs []*http.Request
	ts := serveJSON(t, studyJSON("NCT04000000", "Fetched", "2022-05"), &reqs)

	info, err := testClient(ts).Fetch(context.Background(), " NCT04000000 ")
	require.NoError(t, err)
	assert.Equal(t, "NCT04000000", info.NCTNumber)
	assert.Equal(t, "Fetched", info.StudyTitle)
	assert.Equal(t, "/studies/NCT04000000", reqs[0].URL.Path)
}

func TestFetchNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := testClient(ts).Fetch(context.Background(), "NCT0")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetchEmptyID(t *testing.T) {
	_, err := (&Client{}).Fetch(context.Background(), "  ")
	assert.Error(t, err)
}

func intPtr(n int) *int { return &n }
