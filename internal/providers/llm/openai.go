package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIChat calls an OpenAI-compatible chat completions endpoint in JSON
// mode.
type OpenAIChat struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

func NewOpenAIChat(baseURL, apiKey, model string) *OpenAIChat {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIChat{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (o *OpenAIChat) Close() error { return nil }

func (o *OpenAIChat) SummarizeChunk(ctx context.Context, chunk string) (map[string]any, error) {
	return o.completeJSON(ctx, mapPrompt, chunk)
}

func (o *OpenAIChat) ReduceSummaries(ctx context.Context, partials []map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(partials)
	if err != nil {
		return nil, err
	}
	return o.completeJSON(ctx, reducePrompt, string(payload))
}

func (o *OpenAIChat) Answer(ctx context.Context, question, contextText string) (map[string]any, error) {
	return o.completeJSON(ctx, answerPrompt, "Question: "+question+"\nContext: "+contextText)
}

func (o *OpenAIChat) completeJSON(ctx context.Context, system, user string) (map[string]any, error) {
	reqBody, err := json.Marshal(map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("chat endpoint returned no choices")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return out, nil
}
