// Package websearch is the fallback evidence channel for questions the
// filing pipeline cannot answer from SEC sources alone. It scrapes the
// HTML search endpoint and optionally condenses results with a model.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultSearchURL = "https://html.duckduckgo.com/html/"

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchClient scrapes the HTML search endpoint, which needs no API key
// and tolerates light automated use.
type SearchClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSearchClient creates a search client. baseURL may be empty for the
// default endpoint.
func NewSearchClient(baseURL string) *SearchClient {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &SearchClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *SearchClient) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Search returns up to maxResults hits for a query.
func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	endpoint := c.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed: HTTP %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     cleanRedirectURL(href),
			Snippet: snippet,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// cleanRedirectURL unwraps the tracking redirect the HTML endpoint puts
// around result links.
func cleanRedirectURL(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	return href
}
