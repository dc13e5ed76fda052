// Package marketdata is the adapter for the stock quote service. It
// layers two lookup paths (intraday history, then quote summary), a
// typed error classification, a TTL quote cache and a user-facing tool
// that never lets an upstream failure escape as an error.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client queries the market-data service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a market-data client. baseURL may be empty for the
// default endpoint; tests pass a stub server URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// chartResponse is the intraday history envelope; only the close series
// matters here.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// quoteSummaryResponse carries the secondary lookup fields.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName      string `json:"longName"`
				PreviousClose struct {
					Raw float64 `json:"raw"`
				} `json:"regularMarketPreviousClose"`
			} `json:"price"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// IntradayClose returns the most recent closing price from one day of
// intraday history. A response without any close value is a typed
// not-found error, not a zero price.
func (c *Client) IntradayClose(ctx context.Context, ticker string) (float64, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, ticker)

	body, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}

	var decoded chartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, &APIError{Kind: KindTransient, Detail: "malformed chart response"}
	}

	for _, result := range decoded.Chart.Result {
		for _, quote := range result.Indicators.Quote {
			// Most recent non-nil close wins.
			for i := len(quote.Close) - 1; i >= 0; i-- {
				if quote.Close[i] != nil {
					return *quote.Close[i], nil
				}
			}
		}
	}

	return 0, &APIError{Kind: KindNotFound, Detail: "no close price in history for " + ticker}
}

// QuoteSummary returns the previous close and display name from the
// quote-summary endpoint, the fallback when history yields nothing.
func (c *Client) QuoteSummary(ctx context.Context, ticker string) (price float64, longName string, err error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price", c.baseURL, ticker)

	body, err := c.get(ctx, url)
	if err != nil {
		return 0, "", err
	}

	var decoded quoteSummaryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, "", &APIError{Kind: KindTransient, Detail: "malformed quote summary response"}
	}

	if len(decoded.QuoteSummary.Result) == 0 {
		return 0, "", &APIError{Kind: KindNotFound, Detail: "no quote summary for " + ticker}
	}

	p := decoded.QuoteSummary.Result[0].Price
	if p.PreviousClose.Raw <= 0 {
		return 0, "", &APIError{Kind: KindNotFound, Detail: "no previous close for " + ticker}
	}
	return p.PreviousClose.Raw, p.LongName, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Detail: err.Error()}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sec-copilot/1.0)")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Detail: err.Error()}
	}
	defer res.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus(res.StatusCode, string(body))
	}
	if readErr != nil {
		return nil, &APIError{Kind: KindTransient, Detail: readErr.Error()}
	}
	return body, nil
}
