package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) SummarizeChunk(ctx context.Context, chunk string) (map[string]any, error) {
	return v.generateJSON(ctx, mapPrompt+"\n\n"+chunk)
}

func (v *VertexGemini) ReduceSummaries(ctx context.Context, partials []map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(partials)
	if err != nil {
		return nil, err
	}
	return v.generateJSON(ctx, reducePrompt+"\n\n"+string(payload))
}

func (v *VertexGemini) Answer(ctx context.Context, question, contextText string) (map[string]any, error) {
	return v.generateJSON(ctx, answerPrompt+"\n\nQuestion: "+question+"\nContext: "+contextText)
}

func (v *VertexGemini) generateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	var sb strings.Builder

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return out, nil
}
