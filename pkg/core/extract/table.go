package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// TableRow is one parsed row of a financial statement table: a label
// cell followed by value cells (typically one per reporting period).
type TableRow struct {
	Label  string
	Values []string
}

// Additional metrics only reachable through table extraction. Flat text
// phrasing for these is too ambiguous to pattern-match reliably.
const (
	MetricGrossProfit       = "gross_profit"
	MetricOperatingExpenses = "operating_expenses"
	MetricTotalLiabilities  = "total_liabilities"
	MetricTotalEquity       = "total_equity"
	MetricOperatingCashFlow = "operating_cash_flow"
	MetricInvestingCashFlow = "investing_cash_flow"
	MetricFinancingCashFlow = "financing_cash_flow"
)

// rowSpec maps row-label keywords to a metric. Grouped by statement type
// for readability; matching itself is flat first-hit-wins over the
// ordered list.
type rowSpec struct {
	Metric   string
	Keywords []string
}

var tableSpecs = []rowSpec{
	// Income statement
	{MetricRevenue, []string{"total net sales", "net sales", "total revenue", "revenues", "revenue"}},
	{MetricGrossProfit, []string{"gross profit", "gross margin"}},
	{MetricOperatingExpenses, []string{"total operating expenses", "operating expenses"}},
	{MetricNetIncome, []string{"net income", "net earnings", "net loss"}},

	// Balance sheet
	{MetricTotalAssets, []string{"total assets"}},
	{MetricTotalLiabilities, []string{"total liabilities"}},
	{MetricTotalEquity, []string{"total stockholders", "total shareholders", "total equity"}},
	{MetricCash, []string{"cash and cash equivalents"}},

	// Cash flow statement
	{MetricOperatingCashFlow, []string{"net cash provided by operating activities", "cash provided by operating"}},
	{MetricInvestingCashFlow, []string{"net cash used in investing activities", "cash used in investing", "cash provided by investing"}},
	{MetricFinancingCashFlow, []string{"net cash used in financing activities", "cash used in financing", "cash provided by financing"}},
}

// ExtractFromTable extracts figures from already-parsed statement rows.
// The first cell of each row is matched against per-metric keyword
// lists; on a hit the first parseable value cell supplies the amount.
// A metric already captured by an earlier row is not overwritten, so
// the consolidated total (which appears first) beats segment repeats.
func ExtractFromTable(rows []TableRow) Figures {
	figures := make(Figures)

	for _, row := range rows {
		label := strings.ToLower(strings.TrimSpace(row.Label))
		if label == "" {
			continue
		}

		for _, spec := range tableSpecs {
			if _, done := figures[spec.Metric]; done {
				continue
			}
			if !labelMatches(label, spec.Keywords) {
				continue
			}
			if val, ok := firstNumericCell(row.Values); ok {
				figures[spec.Metric] = val
			}
			break
		}
	}

	return figures
}

func labelMatches(label string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

func firstNumericCell(cells []string) (float64, bool) {
	for _, cell := range cells {
		if val := parseCellValue(cell); val != nil {
			return *val, true
		}
	}
	return 0, false
}

var (
	cellNumberPattern = regexp.MustCompile(`[\d.]+`)
	cellDatePattern   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
)

var monthAbbrevs = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// parseCellValue parses a single table cell into a number. Recognizes
// $ and comma formatting and accounting-style parenthesized negatives;
// rejects placeholders and date-like cells. Returns nil when the cell
// holds no usable number.
func parseCellValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "—" || s == "N/A" {
		return nil
	}

	lower := strings.ToLower(s)
	for _, month := range monthAbbrevs {
		if strings.Contains(lower, month) {
			return nil
		}
	}
	if cellDatePattern.MatchString(s) {
		return nil
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	} else if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	match := cellNumberPattern.FindString(s)
	if match == "" {
		return nil
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	if negative {
		val = -val
	}
	return &val
}
