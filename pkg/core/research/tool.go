package research

import (
	"context"
	"fmt"
)

// FilingSearchTool is the conversational wrapper around the pipeline.
// Like the other tools it converts every failure into readable text;
// an error escaping a tool breaks the surrounding assistant turn.
type FilingSearchTool struct {
	retriever   *Retriever
	synthesizer *Synthesizer
}

// NewFilingSearchTool creates a filing search tool.
func NewFilingSearchTool(retriever *Retriever, synthesizer *Synthesizer) *FilingSearchTool {
	return &FilingSearchTool{retriever: retriever, synthesizer: synthesizer}
}

// Search runs the full pipeline for a question and returns the answer
// text. Never returns an error.
func (t *FilingSearchTool) Search(ctx context.Context, query string) string {
	evidence, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		fmt.Printf("[WARNING] Filing retrieval failed for %q: %v\n", query, err)
		return "The SEC filing search is temporarily unavailable. Please try again in a few minutes, or ask about a stock price instead."
	}

	answer, err := t.synthesizer.Synthesize(ctx, query, evidence)
	if err != nil {
		fmt.Printf("[WARNING] Answer synthesis failed for %q: %v\n", query, err)
		if len(evidence) > 0 {
			// Degrade to the raw evidence rather than losing the retrieval.
			out := "I found the following SEC filings but could not compose a summary:\n\n"
			for _, block := range evidence {
				out += block + "\n\n"
			}
			return out
		}
		return NoFilingsMessage
	}

	return answer
}
