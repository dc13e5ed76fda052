package marketdata

import (
	"fmt"
	"strings"
)

// ErrorKind classifies upstream market-data failures at the adapter
// boundary so callers branch on a typed value instead of searching
// error text.
type ErrorKind int

const (
	// KindTransient covers network errors and unexpected upstream
	// responses that may succeed on retry.
	KindTransient ErrorKind = iota
	// KindRateLimited marks an explicit throttling signal (HTTP 429 or
	// characteristic "too many requests" phrasing).
	KindRateLimited
	// KindNotFound means the service answered but had no data for the
	// ticker.
	KindNotFound
)

// APIError is a classified market-data failure.
type APIError struct {
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("market data rate limited (HTTP %d): %s", e.Status, e.Detail)
	case KindNotFound:
		return fmt.Sprintf("market data not found: %s", e.Detail)
	default:
		return fmt.Sprintf("market data error (HTTP %d): %s", e.Status, e.Detail)
	}
}

// classifyStatus turns an HTTP failure into a typed APIError.
func classifyStatus(status int, body string) *APIError {
	kind := KindTransient
	if status == 429 || containsRateLimitPhrase(body) {
		kind = KindRateLimited
	} else if status == 404 {
		kind = KindNotFound
	}
	return &APIError{Kind: kind, Status: status, Detail: truncate(body, 100)}
}

func containsRateLimitPhrase(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "too many requests") || strings.Contains(lower, "rate limit")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
