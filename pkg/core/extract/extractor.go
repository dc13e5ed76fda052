// Package extract pulls financial figures out of SEC filing documents.
//
// Extraction is best-effort pattern matching, not authoritative parsing:
// each metric carries an ordered list of regex patterns, the first
// pattern with any match wins, and the largest parsed value is taken as
// the reported figure (the total line is larger than sub-lines and
// footnote references). A metric with no match is simply absent.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Metric names used as keys in a Figures map.
const (
	MetricRevenue     = "revenue"
	MetricNetIncome   = "net_income"
	MetricTotalAssets = "total_assets"
	MetricCash        = "cash"
)

// Figures maps metric name to the numeric amount parsed from a filing.
// Values are stored exactly as printed in the document (no unit
// scaling); scaling to millions happens only at display time.
type Figures map[string]float64

// metricSpec binds a metric to its ordered fallback patterns.
type metricSpec struct {
	Metric   string
	Patterns []*regexp.Regexp
}

const amountGroup = `(\d{1,3}(?:,\d{3})*)`

var flatTextSpecs = []metricSpec{
	{
		Metric: MetricRevenue,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Net sales[\s\$]*` + amountGroup),
			regexp.MustCompile(`(?i)Total net sales[\s\$]*` + amountGroup),
			regexp.MustCompile(`(?i)Total revenue[\s\$]*` + amountGroup),
			regexp.MustCompile(`(?i)Revenue[\s\$]*` + amountGroup),
		},
	},
	{
		Metric: MetricNetIncome,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Net income[\s\$]*` + amountGroup),
			regexp.MustCompile(`(?i)Net earnings[\s\$]*` + amountGroup),
		},
	},
	{
		Metric: MetricTotalAssets,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Total assets[\s\$]*` + amountGroup),
		},
	},
	{
		Metric: MetricCash,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Cash and cash equivalents[\s\$]*` + amountGroup),
		},
	},
}

// Extract scans flattened filing text for the four core metrics. It is a
// pure function of its input: identical text yields identical figures.
func Extract(text string) Figures {
	figures := make(Figures)

	for _, spec := range flatTextSpecs {
		for _, pattern := range spec.Patterns {
			matches := pattern.FindAllStringSubmatch(text, -1)
			if len(matches) == 0 {
				continue
			}

			best, found := 0.0, false
			for _, m := range matches {
				raw := strings.ReplaceAll(m[1], ",", "")
				val, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					continue
				}
				if !found || val > best {
					best = val
					found = true
				}
			}

			if found {
				figures[spec.Metric] = best
			}
			// First pattern with a match settles this metric, even if
			// none of its groups parsed.
			break
		}
	}

	return figures
}

// FormatAmount renders a figure for display. Filings print statement
// lines in whole units of their declared scale, so anything from 1000 up
// reads naturally as millions.
func FormatAmount(amount float64) string {
	if amount >= 1000 {
		return fmt.Sprintf("$%s million", withThousandsSeparators(amount))
	}
	return "$" + withThousandsSeparators(amount)
}

// Describe renders a figure set as evidence lines, ordered by metric
// name for deterministic output.
func (f Figures) Describe() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", displayName(name), FormatAmount(f[name])))
	}
	return lines
}

func displayName(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func withThousandsSeparators(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	whole := int64(amount)
	frac := amount - float64(whole)

	s := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String()
	if frac > 0.004 {
		out += strings.TrimPrefix(strconv.FormatFloat(frac, 'f', 2, 64), "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
