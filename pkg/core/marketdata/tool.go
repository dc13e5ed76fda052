package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// PriceTool answers conversational price lookups. Every failure mode is
// rendered as guidance text; the tool never returns an error because a
// broken quote must not abort the surrounding answer.
type PriceTool struct {
	client *Client
	cache  *QuoteCache
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewPriceTool creates a price tool around a client with a fresh cache.
func NewPriceTool(client *Client) *PriceTool {
	return &PriceTool{
		client: client,
		cache:  NewQuoteCache(),
		sleep:  time.Sleep,
		jitter: defaultJitter,
	}
}

// defaultJitter spreads lookups over 0.5 to 1.5 seconds so bursts of
// tool calls do not hit the quote service in lockstep.
func defaultJitter() time.Duration {
	return 500*time.Millisecond + time.Duration(rand.Int63n(int64(time.Second)))
}

// SetCache replaces the quote cache, used by tests to inject a clock.
func (t *PriceTool) SetCache(cache *QuoteCache) {
	t.cache = cache
}

// SetSleeper replaces the jitter sleep function.
func (t *PriceTool) SetSleeper(sleep func(time.Duration)) {
	t.sleep = sleep
}

// GetPrice returns a human-readable quote for a ticker. The lookup
// order is cache, intraday history, quote summary; rate limiting short
// circuits to a retry hint and anything else degrades to an
// explanation of likely causes.
func (t *PriceTool) GetPrice(ctx context.Context, ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "Please provide a ticker symbol to look up a price."
	}

	if text, ok := t.cache.Get(ticker); ok {
		return text
	}

	t.sleep(t.jitter())

	price, err := t.client.IntradayClose(ctx, ticker)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited {
			return rateLimitMessage(ticker)
		}

		// Secondary path: previous close from the quote summary.
		var name string
		price, name, err = t.client.QuoteSummary(ctx, ticker)
		if err != nil {
			return failureMessage(ticker, err)
		}
		text := formatQuote(ticker, name, price)
		t.cache.Put(ticker, text)
		return text
	}

	text := formatQuote(ticker, "", price)
	t.cache.Put(ticker, text)
	return text
}

func formatQuote(ticker, name string, price float64) string {
	display := ticker
	if name != "" {
		display = fmt.Sprintf("%s (%s)", name, ticker)
	}
	return fmt.Sprintf(
		"The current price of %s is USD $%.2f. Note: Data may be delayed by up to 20 minutes.",
		display, price)
}

func rateLimitMessage(ticker string) string {
	return fmt.Sprintf(
		"Unable to retrieve the price for %s right now because the market data service is rate-limiting requests. "+
			"Please try again in a few minutes, or check https://finance.yahoo.com/quote/%s directly.",
		ticker, ticker)
}

func failureMessage(ticker string, err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindRateLimited:
			return rateLimitMessage(ticker)
		case KindNotFound:
			return fmt.Sprintf(
				"Unable to retrieve a price for %s. This could be due to rate limiting, an invalid ticker symbol, "+
					"or the market being closed. Please verify the ticker and try again later, "+
					"or check manually at https://finance.yahoo.com/quote/%s.",
				ticker, ticker)
		}
	}
	return fmt.Sprintf(
		"Error retrieving the price for %s: %s. You can check manually at https://finance.yahoo.com/quote/%s.",
		ticker, truncate(err.Error(), 100), ticker)
}
