// Package research orchestrates the filing evidence pipeline: resolve
// the company, search filing metadata, pull and extract figures from
// the documents, and synthesize a sourced answer.
package research

import (
	"context"
	"fmt"
	"strings"

	"sec_copilot/pkg/core/extract"
	"sec_copilot/pkg/core/resolver"
	"sec_copilot/pkg/core/secapi"
)

// FilingSearcher is the metadata search surface, satisfied by
// secapi.Client and by test mocks.
type FilingSearcher interface {
	SearchFilings(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error)
	FullTextSearch(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error)
}

// DocumentReader fetches a filing document and flattens it to text.
type DocumentReader interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// TextCache stores flattened document text keyed by URL, satisfied by
// store.FilingTextCache.
type TextCache interface {
	Get(ctx context.Context, url string) (string, bool)
	Save(ctx context.Context, url, text string) error
}

// maxDocumentFetches bounds how many filing documents one retrieval
// downloads. Each fetch costs a 2 second politeness delay, so pulling
// every result would make answers unacceptably slow.
const maxDocumentFetches = 2

// Retriever assembles the ordered evidence set for a question.
type Retriever struct {
	search FilingSearcher
	docs   DocumentReader
	cache  TextCache
}

// NewRetriever creates a retriever over a metadata searcher and a
// document reader.
func NewRetriever(search FilingSearcher, docs DocumentReader) *Retriever {
	return &Retriever{search: search, docs: docs}
}

// SetTextCache installs an optional document text cache so repeated
// questions about the same filing skip the throttled SEC fetch.
func (r *Retriever) SetTextCache(cache TextCache) {
	r.cache = cache
}

// documentText returns the flattened text of a filing, through the
// cache when one is installed.
func (r *Retriever) documentText(ctx context.Context, url string) (string, error) {
	if r.cache != nil {
		if text, ok := r.cache.Get(ctx, url); ok {
			return text, nil
		}
	}

	text, err := r.docs.FetchText(ctx, url)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if saveErr := r.cache.Save(ctx, url, text); saveErr != nil {
			fmt.Printf("[WARNING] Failed to cache filing text for %s: %v\n", url, saveErr)
		}
	}
	return text, nil
}

// Retrieve resolves the query to a company and returns evidence blocks
// in a fixed order: metadata results first (with extracted figures for
// the first documents), then full-text matches. A metadata search
// failure fails the whole retrieval; document fetch and full-text
// failures degrade to whatever evidence was already gathered.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	ticker, resolved := resolver.Resolve(query)

	companyQuery := ""
	if !resolved {
		companyQuery = query
	}

	records, err := r.search.SearchFilings(ctx, ticker, companyQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("filing metadata search failed: %w", err)
	}

	var evidence []string
	fetched := 0
	for _, rec := range records {
		block := describeFiling(rec)

		if fetched < maxDocumentFetches && rec.LinkToFiling != "" {
			fetched++
			text, fetchErr := r.documentText(ctx, rec.LinkToFiling)
			if fetchErr != nil {
				fmt.Printf("[WARNING] Document fetch failed for %s: %v\n", rec.LinkToFiling, fetchErr)
			} else if figures := extract.Extract(text); len(figures) > 0 {
				block += "\nExtracted figures:\n" + strings.Join(figures.Describe(), "\n")
			}
		}

		evidence = append(evidence, block)
	}

	fullText, err := r.search.FullTextSearch(ctx, query, nil)
	if err != nil {
		// Full-text search is a best-effort supplement.
		fmt.Printf("[WARNING] Full-text search failed for %q: %v\n", query, err)
	} else {
		for _, rec := range fullText {
			evidence = append(evidence, "Full-text match: "+describeFiling(rec))
		}
	}

	return evidence, nil
}

// describeFiling renders one filing record as an evidence block with
// the fields the synthesizer is required to surface.
func describeFiling(rec secapi.FilingRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) filed a %s on %s", rec.CompanyName, rec.Ticker, rec.FormType, rec.FiledDate())
	if rec.PeriodOfReport != "" {
		fmt.Fprintf(&sb, " for the period ending %s", rec.PeriodOfReport)
	}
	sb.WriteString(".")
	if rec.Description != "" {
		fmt.Fprintf(&sb, " %s.", strings.TrimSuffix(rec.Description, "."))
	}
	if rec.LinkToFiling != "" {
		fmt.Fprintf(&sb, "\nDocument URL: %s", rec.LinkToFiling)
	}
	return sb.String()
}
