package websearch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sec_copilot/pkg/core/prompt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// fallbackSummaryInstruction is used when the prompt library has no
// assistant.search_summary entry.
const fallbackSummaryInstruction = "You condense web search results into a 2-4 sentence digest for an investment research assistant. Keep every source URL exactly as given and never state facts beyond the snippets."

// Summarizer condenses raw search hits into a short readable digest
// with a direct Gemini client.
type Summarizer struct {
	modelName string
	client    *genai.Client
}

// NewSummarizer creates a summarizer from GEMINI_API_KEY.
func NewSummarizer(ctx context.Context) (*Summarizer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &Summarizer{
		modelName: "gemini-3-flash-preview",
		client:    client,
	}, nil
}

// Summarize condenses search results into a few sentences. Source URLs
// are preserved verbatim so readers can verify claims.
func (s *Summarizer) Summarize(ctx context.Context, query string, results []Result) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("no results to summarize")
	}

	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(0.3)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(summaryInstruction())},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search query: %q\n\nResults:\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n%s\nSource: %s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func summaryInstruction() string {
	if p, err := prompt.Get().GetSystemPrompt(prompt.PromptIDs.SearchSummary); err == nil && p != "" {
		return p
	}
	return fallbackSummaryInstruction
}
