package secapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// SEC fair-access policy requires a descriptive user agent with a
	// contact address on every automated request.
	documentUserAgent = "SEC Copilot 1.0 (research@sec-copilot.dev)"

	documentTimeout = 15 * time.Second

	// politenessDelay is applied before every document fetch so bursts
	// of per-filing fetches stay within SEC rate guidance.
	politenessDelay = 2 * time.Second
)

// DocumentFetcher downloads raw filing documents over HTTP with the
// compliance headers and throttling the SEC archive expects.
type DocumentFetcher struct {
	httpClient *http.Client
	sleep      func(time.Duration)
}

// NewDocumentFetcher creates a fetcher with the standard timeout and a
// real sleep. Tests replace the sleeper via SetSleeper.
func NewDocumentFetcher() *DocumentFetcher {
	return &DocumentFetcher{
		httpClient: &http.Client{Timeout: documentTimeout},
		sleep:      time.Sleep,
	}
}

// SetSleeper replaces the throttle sleep function.
func (f *DocumentFetcher) SetSleeper(sleep func(time.Duration)) {
	f.sleep = sleep
}

// SetHTTPClient replaces the underlying HTTP client.
func (f *DocumentFetcher) SetHTTPClient(hc *http.Client) {
	f.httpClient = hc
}

// Fetch downloads the raw HTML of a filing document. Non-2xx responses
// and network errors propagate as fetch failures.
func (f *DocumentFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.sleep(politenessDelay)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", documentUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document fetch failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("document fetch failed: HTTP %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("document read failed: %w", err)
	}
	return string(body), nil
}

// FetchText downloads a filing document and flattens it to plain text
// suitable for pattern extraction.
func (f *DocumentFetcher) FetchText(ctx context.Context, url string) (string, error) {
	html, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return FlattenHTML(html), nil
}

// FlattenHTML strips markup from a filing document and returns its text
// content. Scripts, styles and hidden elements are dropped; inline XBRL
// tags are replaced by their text so tagged figures stay readable.
func FlattenHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallbackFlatten(html)
	}

	doc.Find("script, style, [hidden], [style*='display:none'], [style*='display: none']").Remove()

	doc.Find("ix\\:nonFraction, ix\\:nonNumeric, ix\\:fraction").Each(func(i int, s *goquery.Selection) {
		s.ReplaceWithHtml(s.Text())
	})

	text := doc.Text()
	return normalizeWhitespace(text)
}

// fallbackFlatten is a regex-based cleanup for documents goquery cannot
// parse.
func fallbackFlatten(html string) string {
	reXBRL := regexp.MustCompile(`<ix:[^>]+>([^<]*)</ix:[^>]+>`)
	text := reXBRL.ReplaceAllString(html, "$1")

	reScript := regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</\1>`)
	text = reScript.ReplaceAllString(text, "")

	reTag := regexp.MustCompile(`<[^>]+>`)
	text = reTag.ReplaceAllString(text, " ")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&#160;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")

	return normalizeWhitespace(text)
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

func normalizeWhitespace(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
