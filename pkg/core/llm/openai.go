package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// OpenAIProvider implements the Provider interface over the OpenAI
// chat-completions HTTP API.
type OpenAIProvider struct {
	Model string // e.g. "gpt-4o-mini"
}

var _ Provider = (*OpenAIProvider)(nil)

type chatRequest struct {
	Messages       []chatMessage   `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if val, ok := options["api_key"].(string); ok && val != "" {
		apiKey = val
	}
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY_MISSING: Please set OPENAI_API_KEY env var")
	}

	model := p.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	if val, ok := options["model"].(string); ok && val != "" {
		model = val
	}

	url := "https://api.openai.com/v1/chat/completions"

	reqBody := chatRequest{
		Messages: []chatMessage{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:       model,
		MaxTokens:   4096,
		Stream:      false,
		Temperature: 0.1,
	}

	if val, ok := options["response_format"].(map[string]interface{}); ok {
		if val["type"] == "json_object" {
			reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
		}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("OPENAI_MARSHAL_ERROR: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("OPENAI_REQ_CREATE_ERROR: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OPENAI_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("OPENAI_READ_BODY_ERROR: %v", err)
	}

	if res.StatusCode != 200 {
		return "", fmt.Errorf("OPENAI_API_ERROR: status=%d body=%s", res.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("OPENAI_UNMARSHAL_ERROR: %v", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("OPENAI_NO_CHOICES: %s", string(body))
	}

	return response.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) AdaptInstructions(raw string) string {
	return raw
}
