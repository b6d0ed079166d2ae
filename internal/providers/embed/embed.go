package embed

import "context"

// Provider computes one retrieval vector per input text. Dimensionality is
// provider-defined and must match the segment_embeddings column.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}
