package extract

import (
	"strings"
	"testing"
)

func TestExtract_TakesMaxValue(t *testing.T) {
	text := "Net sales $100,000 for the segment ... Net sales $250,000 consolidated"

	figures := Extract(text)

	got, ok := figures[MetricRevenue]
	if !ok {
		t.Fatal("revenue not extracted")
	}
	if got != 250000 {
		t.Errorf("revenue = %f, want 250000 (maximum of all matches)", got)
	}
}

func TestExtract_FirstPatternWins(t *testing.T) {
	// "Net sales" matches the first revenue pattern, so the larger
	// "Total revenue" figure from a later pattern must be ignored.
	text := "Net sales $1,000 ... Total revenue $9,999"

	figures := Extract(text)

	if got := figures[MetricRevenue]; got != 1000 {
		t.Errorf("revenue = %f, want 1000 from first matching pattern", got)
	}
}

func TestExtract_AllMetrics(t *testing.T) {
	text := `
	CONSOLIDATED STATEMENTS OF OPERATIONS
	Net sales $574,785
	Net income $30,425
	CONSOLIDATED BALANCE SHEETS
	Total assets $527,854
	Cash and cash equivalents $73,387
	`

	figures := Extract(text)

	want := map[string]float64{
		MetricRevenue:     574785,
		MetricNetIncome:   30425,
		MetricTotalAssets: 527854,
		MetricCash:        73387,
	}
	for metric, expected := range want {
		if got, ok := figures[metric]; !ok || got != expected {
			t.Errorf("%s = %f (present=%v), want %f", metric, got, ok, expected)
		}
	}
}

func TestExtract_NoKeywordsYieldsEmptySet(t *testing.T) {
	figures := Extract("This filing discusses governance and risk factors only.")
	if len(figures) != 0 {
		t.Errorf("expected empty figure set, got %v", figures)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	text := "Net sales $12,345 ... Net income $6,789"

	first := Extract(text)
	second := Extract(text)

	if len(first) != len(second) {
		t.Fatalf("figure counts differ: %d vs %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("metric %s differs between runs: %f vs %f", k, v, second[k])
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{574785, "$574,785 million"},
		{1000, "$1,000 million"},
		{999, "$999"},
		{42, "$42"},
	}
	for _, tc := range tests {
		if got := FormatAmount(tc.amount); got != tc.want {
			t.Errorf("FormatAmount(%f) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestFigures_Describe(t *testing.T) {
	figures := Figures{
		MetricRevenue: 574785,
		MetricCash:    73387,
	}

	lines := figures.Describe()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	// Sorted by metric name: cash before revenue.
	if !strings.HasPrefix(lines[0], "Cash:") {
		t.Errorf("first line = %q, want Cash line", lines[0])
	}
	if !strings.Contains(lines[1], "$574,785 million") {
		t.Errorf("revenue line = %q, want formatted amount", lines[1])
	}
}
