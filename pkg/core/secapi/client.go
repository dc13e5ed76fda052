// Package secapi is the adapter for the SEC filings search services:
// a metadata query API and a separate full-text search API, plus a
// throttled fetcher for the filing documents themselves.
package secapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultQueryURL    = "https://api.sec-api.io"
	defaultFullTextURL = "https://api.sec-api.io/full-text-search"

	// primaryResultLimit caps metadata results per retrieval; the
	// service may return more but only the most recent filings matter
	// for answering a question.
	primaryResultLimit = 3

	// fullTextResultLimit caps the full-text matches appended after
	// the metadata results.
	fullTextResultLimit = 2

	// Full-text search is constrained to a fixed recent window; older
	// filings rarely answer current-finances questions and blow up the
	// result set.
	fullTextStartDate = "2022-01-01"
	fullTextEndDate   = "2024-12-31"
)

// Client calls the filings metadata and full-text search services.
type Client struct {
	apiKey      string
	queryURL    string
	fullTextURL string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides the service endpoints (tests point these at a
// stub server).
func WithBaseURLs(queryURL, fullTextURL string) Option {
	return func(c *Client) {
		c.queryURL = queryURL
		c.fullTextURL = fullTextURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a filings search client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		queryURL:    defaultQueryURL,
		fullTextURL: defaultFullTextURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchFilings queries the metadata service for recent 10-K/10-Q
// filings. When ticker is non-empty the query filters by ticker;
// otherwise it falls back to a company-name free-text filter built from
// the raw query. Results are sorted by filing date descending and
// truncated to the primary limit.
func (c *Client) SearchFilings(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]FilingRecord, error) {
	forms := formTypeExpr(formTypes)

	var expr string
	if ticker != "" {
		expr = fmt.Sprintf("ticker:%s AND formType:%s", ticker, forms)
	} else {
		expr = fmt.Sprintf("formType:%s AND companyName:%s", forms, companyQuery)
	}

	query := metadataQuery{
		Query: expr,
		From:  "0",
		Size:  "5",
		Sort:  []map[string]sortBy{{"filedAt": {Order: "desc"}}},
	}

	resp, err := c.post(ctx, c.queryURL, query)
	if err != nil {
		return nil, fmt.Errorf("filing metadata search failed: %w", err)
	}

	if len(resp.Filings) > primaryResultLimit {
		resp.Filings = resp.Filings[:primaryResultLimit]
	}
	return resp.Filings, nil
}

// FullTextSearch queries the full-text service for filings whose body
// contains the literal query string, within the fixed date window.
func (c *Client) FullTextSearch(ctx context.Context, query string, formTypes []string) ([]FilingRecord, error) {
	req := fullTextQuery{
		Query:     fmt.Sprintf("%q", query),
		FormTypes: formTypes,
		StartDate: fullTextStartDate,
		EndDate:   fullTextEndDate,
	}

	resp, err := c.post(ctx, c.fullTextURL, req)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}

	if len(resp.Filings) > fullTextResultLimit {
		resp.Filings = resp.Filings[:fullTextResultLimit]
	}
	return resp.Filings, nil
}

func (c *Client) post(ctx context.Context, url string, body interface{}) (*filingsResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", res.StatusCode, string(snippet))
	}

	var decoded filingsResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode filings response: %w", err)
	}
	return &decoded, nil
}

func formTypeExpr(formTypes []string) string {
	if len(formTypes) == 0 {
		return `("10-K" OR "10-Q")`
	}
	expr := "("
	for i, ft := range formTypes {
		if i > 0 {
			expr += " OR "
		}
		expr += fmt.Sprintf("%q", ft)
	}
	return expr + ")"
}
