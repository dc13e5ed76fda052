package prompt

// Convenience functions for common prompt operations

// GetAssistantPrompt returns an assistant prompt's system prompt by name
func GetAssistantPrompt(name string) (string, error) {
	id := "assistant." + name
	return Get().GetSystemPrompt(id)
}

// GetRoutingPrompt returns the query routing system prompt
func GetRoutingPrompt() (string, error) {
	return Get().GetSystemPrompt(PromptIDs.AssistantRouter)
}

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	AssistantFilingAnswer string
	AssistantRouter       string
	AssistantStructured   string
	SearchSummary         string
}{
	AssistantFilingAnswer: "assistant.filing_answer",
	AssistantRouter:       "assistant.router",
	AssistantStructured:   "assistant.structured_answer",
	SearchSummary:         "assistant.search_summary",
}
