package marketdata

import (
	"sync"
	"time"
)

// quoteTTL is how long a cached quote stays servable. A read older than
// this triggers a fresh network lookup; stale reads inside the window
// are an accepted tradeoff.
const quoteTTL = 5 * time.Minute

// CachedQuote is one formatted quote with its capture time.
type CachedQuote struct {
	Ticker    string
	Text      string
	FetchedAt time.Time
}

// QuoteCache is a TTL cache of formatted price quotes keyed by ticker.
// Staleness is checked on read; entries are never proactively evicted.
// The mutex makes it safe for concurrent tool invocations, which the
// original single-session design did not need but an HTTP host does.
type QuoteCache struct {
	mu      sync.Mutex
	entries map[string]CachedQuote
	now     func() time.Time
}

// NewQuoteCache creates a cache using the real clock.
func NewQuoteCache() *QuoteCache {
	return NewQuoteCacheWithClock(time.Now)
}

// NewQuoteCacheWithClock creates a cache with an injectable clock for
// tests.
func NewQuoteCacheWithClock(now func() time.Time) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]CachedQuote),
		now:     now,
	}
}

// Get returns the cached quote text for a ticker if it is younger than
// the TTL.
func (c *QuoteCache) Get(ticker string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[ticker]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.FetchedAt) >= quoteTTL {
		return "", false
	}
	return entry.Text, true
}

// Put stores a quote with the current timestamp.
func (c *QuoteCache) Put(ticker, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ticker] = CachedQuote{
		Ticker:    ticker,
		Text:      text,
		FetchedAt: c.now(),
	}
}
