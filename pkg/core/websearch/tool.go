package websearch

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"
)

// Searcher is the lookup surface the tool depends on, satisfied by
// SearchClient and by test mocks.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// SearchTool wraps a Searcher with throttling and soft failure text so
// a broken search never aborts the surrounding answer.
type SearchTool struct {
	searcher   Searcher
	summarizer *Summarizer
	sleep      func(time.Duration)
	jitter     func() time.Duration
}

// NewSearchTool creates a search tool around a searcher.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{
		searcher: searcher,
		sleep:    time.Sleep,
		jitter:   defaultJitter,
	}
}

// defaultJitter spreads searches over 1 to 3 seconds. The HTML endpoint
// blocks clients that query in a tight loop.
func defaultJitter() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}

// SetSleeper replaces the jitter sleep function.
func (t *SearchTool) SetSleeper(sleep func(time.Duration)) {
	t.sleep = sleep
}

// SetSummarizer installs an optional digest pass over raw results.
func (t *SearchTool) SetSummarizer(s *Summarizer) {
	t.summarizer = s
}

// Run searches the web for a query and renders the results as readable
// text. Failures degrade to manual search guidance rather than errors.
func (t *SearchTool) Run(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Please provide a search query."
	}

	t.sleep(t.jitter())

	results, err := t.searcher.Search(ctx, query, 5)
	if err != nil {
		if isRateLimitError(err) {
			return rateLimitGuidance(query)
		}
		fmt.Printf("[WARNING] Web search failed for %q: %v\n", query, err)
		return fallbackGuidance(query)
	}
	if len(results) == 0 {
		return fallbackGuidance(query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Web search results for %q:\n\n", query)

	if t.summarizer != nil {
		if digest, sumErr := t.summarizer.Summarize(ctx, query, results); sumErr == nil && digest != "" {
			fmt.Fprintf(&sb, "Summary: %s\n\n", digest)
		}
	}

	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		fmt.Fprintf(&sb, "   Source: %s\n\n", r.URL)
	}
	return strings.TrimSpace(sb.String())
}

// isRateLimitError matches the status-bearing errors SearchClient
// emits. The endpoint answers HTTP 202 with a challenge page when it
// throttles scrapers, so that status counts as rate limiting too.
func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "http 429") ||
		strings.Contains(msg, "http 202") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

func rateLimitGuidance(query string) string {
	escaped := url.QueryEscape(query)
	return fmt.Sprintf(
		"The web search service is currently rate-limiting requests. You can run the search manually:\n"+
			"- https://duckduckgo.com/?q=%s\n"+
			"- https://www.google.com/search?q=%s\n"+
			"For company financials, the SEC filing search does not depend on this service and may answer your question directly.",
		escaped, escaped)
}

func fallbackGuidance(query string) string {
	escaped := url.QueryEscape(query)
	return fmt.Sprintf(
		"No web search results were available for %q. You can try searching manually at "+
			"https://duckduckgo.com/?q=%s, or ask about SEC filings and stock prices, which use dedicated data sources.",
		query, escaped)
}
