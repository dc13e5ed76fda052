package research

import (
	"context"
	"fmt"
	"strings"

	"sec_copilot/pkg/core/llm"
	"sec_copilot/pkg/core/prompt"
	"sec_copilot/pkg/core/utils"
)

// NoFilingsMessage is returned when a retrieval produced no evidence at
// all. The synthesizer is never invoked in that case.
const NoFilingsMessage = "No relevant SEC filings found for your query. Please try a different search term, company name, or ticker symbol."

// fallbackSystemPrompt is used when the prompt library has no
// assistant.filing_answer entry (e.g. resources/ not shipped alongside
// the binary).
const fallbackSystemPrompt = `You are an investment research assistant answering questions from SEC filing evidence.
Rules:
- Present any extracted financial figures verbatim, exactly as they appear in the evidence. Never invent or round figures.
- Name the specific filing form types (10-K, 10-Q) and their filing dates.
- Always include the direct document URLs from the evidence so the reader can verify.
- If a specific figure is not in the evidence, say that it could not be extracted. Never answer with vague statements like "the information is available in the filing".`

// StructuredAnswer is the JSON shape of a structured synthesis call.
type StructuredAnswer struct {
	Answer      string   `json:"answer"`
	FiguresUsed []string `json:"figures_used"`
	Sources     []string `json:"sources"`
}

// Synthesizer turns a question and its evidence set into a final
// answer through an LLM call.
type Synthesizer struct {
	provider llm.Provider
}

// NewSynthesizer creates a synthesizer over an LLM provider.
func NewSynthesizer(provider llm.Provider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize composes the answer for a question from its evidence
// blocks. Empty evidence short-circuits to the canned message without
// spending a generation call.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, evidence []string) (string, error) {
	if len(evidence) == 0 {
		return NoFilingsMessage, nil
	}

	answer, err := s.provider.GenerateResponse(ctx, buildUserPrompt(question, evidence), systemPrompt(), nil)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}

	return utils.CleanMarkdown(answer), nil
}

// SynthesizeStructured is the machine-readable variant: the model is
// asked for a JSON object and the response is parsed leniently, since
// models wrap JSON in fences or emit near-JSON.
func (s *Synthesizer) SynthesizeStructured(ctx context.Context, question string, evidence []string) (*StructuredAnswer, error) {
	if len(evidence) == 0 {
		return &StructuredAnswer{Answer: NoFilingsMessage}, nil
	}

	jsonShape := `{"answer": string, "figures_used": [string], "sources": [string]}`
	if schema, err := prompt.Get().GetSchema("structured_answer"); err == nil {
		jsonShape = schema.JSONSchema
	}
	userPrompt := buildUserPrompt(question, evidence) +
		"\n\nRespond with a JSON object matching: " + jsonShape

	options := map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}

	raw, err := s.provider.GenerateResponse(ctx, userPrompt, structuredSystemPrompt(), options)
	if err != nil {
		return nil, fmt.Errorf("structured synthesis failed: %w", err)
	}

	var answer StructuredAnswer
	if _, err := utils.SmartParse(utils.CleanMarkdown(raw), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse structured answer: %w", err)
	}
	return &answer, nil
}

func systemPrompt() string {
	if p, err := prompt.GetAssistantPrompt("filing_answer"); err == nil && p != "" {
		return p
	}
	return fallbackSystemPrompt
}

func structuredSystemPrompt() string {
	if p, err := prompt.Get().GetSystemPrompt(prompt.PromptIDs.AssistantStructured); err == nil && p != "" {
		return p
	}
	return fallbackSystemPrompt + "\nRespond with a single JSON object and no surrounding prose."
}

// buildUserPrompt prefers the loaded filing_answer template so the
// question framing can change without a rebuild, with an inline
// fallback when resources/ is not shipped alongside the binary.
func buildUserPrompt(question string, evidence []string) string {
	var sb strings.Builder
	for i, block := range evidence {
		fmt.Fprintf(&sb, "--- Evidence %d ---\n%s\n\n", i+1, block)
	}
	blocks := strings.TrimSpace(sb.String())

	if pt, err := prompt.Get().GetPrompt(prompt.PromptIDs.AssistantFilingAnswer); err == nil {
		pctx := prompt.NewContext().Set("Question", question).Set("Evidence", blocks)
		if rendered, rerr := prompt.RenderUserPrompt(pt, pctx); rerr == nil && rendered != "" {
			return rendered
		}
	}

	return fmt.Sprintf(
		"Question: %s\n\nEvidence from SEC filings:\n\n%s\n\nAnswer the question using only this evidence.",
		question, blocks)
}
