package resolver

import "testing"

func TestResolve_CompanyNames(t *testing.T) {
	tests := []struct {
		query  string
		ticker string
	}{
		{"Show me the financial statements for Amazon", "AMZN"},
		{"what is apple's revenue?", "AAPL"},
		{"How is MICROSOFT doing", "MSFT"},
		{"alphabet 10-K", "GOOGL"},
		{"facebook spending patterns", "META"},
		{"Tell me about JP Morgan's balance sheet", "JPM"},
	}

	for _, tc := range tests {
		got, ok := Resolve(tc.query)
		if !ok {
			t.Errorf("Resolve(%q): expected match, got none", tc.query)
			continue
		}
		if got != tc.ticker {
			t.Errorf("Resolve(%q) = %s, want %s", tc.query, got, tc.ticker)
		}
	}
}

func TestResolve_RawTickers(t *testing.T) {
	got, ok := Resolve("What about AMZN?")
	if !ok || got != "AMZN" {
		t.Errorf("Resolve standalone ticker = %q, %v; want AMZN, true", got, ok)
	}

	// A ticker embedded in a longer word must not match.
	if got, ok := Resolve("Is AMZNX a real fund?"); ok {
		t.Errorf("Resolve(AMZNX) matched %s, want no match", got)
	}
}

func TestResolve_NameTablePrecedence(t *testing.T) {
	// Both a company name and a different raw ticker appear; the name
	// table wins because it is scanned first.
	got, ok := Resolve("Compare Amazon against MSFT")
	if !ok || got != "AMZN" {
		t.Errorf("Resolve = %q, %v; want AMZN from name table", got, ok)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	if got, ok := Resolve("What is the outlook for small-cap biotech?"); ok {
		t.Errorf("Resolve unexpectedly returned %s", got)
	}
}
