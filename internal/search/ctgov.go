// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/trialscout/internal/httputil"
	"github.com/pdiddy/trialscout/pkg/types"
)

// DefaultBaseURL is the public ClinicalTrials.gov v2 API root.
const DefaultBaseURL = "https://clinicaltrials.gov/api/v2"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 512

// Client queries the ClinicalTrials.gov studies endpoint.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	UserAgent  string
	APIKey     string
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient builds a Client from cfg. The HTTP client carries cfg.Timeout
// so a hung request fails instead of blocking the conversation.
func NewClient(cfg types.SearchConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(base, "/"),
		UserAgent:  cfg.UserAgent,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
		Logger:     slog.Default(),
	}
}

// Search fetches one page of studies matching params. pageSize must be
// positive; it overrides any pageSize already present in params.
func (c *Client) Search(ctx context.Context, params Parameters, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, ErrInvalidPageSize
	}

	q := params.Clone()
	q[KeyPageSize] = pageSize
	if _, ok := q[KeyFormat]; !ok {
		q[KeyFormat] = "json"
	}
	countRequested := truthy(q[KeyCountTotal])

	reqURL := c.BaseURL + "/studies?" + q.Encode()
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return Page{}, err
	}

	var sr studiesResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Page{}, fmt.Errorf("%w: parsing trials response: %w", ErrTransport, err)
	}

	studies, err := decodeStudies(sr.Studies)
	if err != nil {
		return Page{}, err
	}

	page := Page{Studies: studies, NextPageToken: sr.NextPageToken}
	if countRequested && sr.TotalCount != nil {
		page.TotalCount = sr.TotalCount
	}

	c.logger().DebugContext(ctx, "trials page fetched",
		"results", len(studies),
		"has_more", page.HasMore(),
		"page_token", q.Lookup(KeyPageToken))
	return page, nil
}

// SearchAll follows nextPageToken until the registry reports no more pages
// or maxPages pages have been read (maxPages <= 0 means no limit). The
// returned page carries the first page's total count and the token of the
// first unread page, if any.
func (c *Client) SearchAll(ctx context.Context, params Parameters, pageSize, maxPages int) (Page, error) {
	first, err := c.Search(ctx, params, pageSize)
	if err != nil {
		return Page{}, err
	}

	out := first
	out.Studies = append([]types.StudyInfo(nil), first.Studies...)
	for n := 1; out.HasMore() && (maxPages <= 0 || n < maxPages); n++ {
		next, err := c.Search(ctx, params.NextPage(out.NextPageToken), pageSize)
		if err != nil {
			return Page{}, fmt.Errorf("fetching page %d: %w", n+1, err)
		}
		out.Studies = append(out.Studies, next.Studies...)
		out.NextPageToken = next.NextPageToken
	}
	return out, nil
}

// Fetch retrieves a single study by NCT number.
func (c *Client) Fetch(ctx context.Context, nctID string) (types.StudyInfo, error) {
	nctID = strings.TrimSpace(nctID)
	if nctID == "" {
		return types.StudyInfo{}, fmt.Errorf("empty NCT number")
	}

	reqURL := c.BaseURL + "/studies/" + url.PathEscape(nctID) + "?format=json"
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return types.StudyInfo{}, err
	}

	info, err := NormalizeJSON(body)
	if err != nil {
		return types.StudyInfo{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return info, nil
}

// get issues a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: trials API request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.Redacted(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading trials response: %w", ErrTransport, err)
	}
	return body, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// decodeStudies normalizes the raw "studies" value. Anything other than a
// JSON array (including absence) is zero results.
func decodeStudies(raw json.RawMessage) ([]types.StudyInfo, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []types.StudyInfo{}, nil
	}

	var elems []RawStudy
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: decoding studies: %w", ErrTransport, err)
	}

	studies := make([]types.StudyInfo, len(elems))
	for i, e := range elems {
		studies[i] = Normalize(e)
	}
	return studies, nil
}

// studiesResponse is the envelope of GET /studies.
type studiesResponse struct {
	TotalCount    *int            `json:"totalCount,omitempty"`
	Studies       json.RawMessage `json:"studies"`
	NextPageToken string          `json:"nextPageToken"`
}
