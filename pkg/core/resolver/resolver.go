// Package resolver maps free-text investor questions to ticker symbols.
//
// Resolution is intentionally table-driven rather than inference-based:
// a fixed company-name mapping is scanned first, then a word-boundary
// match over the known ticker set. Missing a ticker is an expected
// outcome, not an error; the filing search falls back to a company-name
// query in that case.
package resolver

import (
	"regexp"
	"strings"
)

// companyMapping is an ordered name -> ticker table. Order matters: the
// first containment match wins, so more specific names must come before
// shorter ones that could shadow them.
//
// NOTE: the table is deliberately small. Expanding coverage should go
// through the SEC company_tickers.json feed, not by growing this list.
var companyMapping = []struct {
	Name   string
	Ticker string
}{
	{"APPLE", "AAPL"},
	{"MICROSOFT", "MSFT"},
	{"GOOGLE", "GOOGL"},
	{"ALPHABET", "GOOGL"},
	{"AMAZON", "AMZN"},
	{"TESLA", "TSLA"},
	{"META", "META"},
	{"FACEBOOK", "META"},
	{"NVIDIA", "NVDA"},
	{"BERKSHIRE", "BRK"},
	{"JP MORGAN", "JPM"},
	{"VISA", "V"},
}

// knownTickers is scanned when no company name matched. Single-letter
// tickers like "V" are excluded here because a bare-word scan over them
// produces too many false positives ("v" as a word).
var knownTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "BRK", "JPM",
}

var tickerPatterns = buildTickerPatterns()

func buildTickerPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(knownTickers))
	for _, t := range knownTickers {
		patterns[t] = regexp.MustCompile(`\b` + t + `\b`)
	}
	return patterns
}

// Resolve returns the ticker symbol a query refers to, or ok=false when
// none of the known companies or tickers appear in it. At most one
// ticker is ever returned: the company-name table takes precedence over
// the raw ticker scan, and within each list the first match wins.
func Resolve(query string) (string, bool) {
	upper := strings.ToUpper(query)

	for _, m := range companyMapping {
		if strings.Contains(upper, m.Name) {
			return m.Ticker, true
		}
	}

	for _, t := range knownTickers {
		if tickerPatterns[t].MatchString(upper) {
			return t, true
		}
	}

	return "", false
}
