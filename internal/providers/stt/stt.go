package stt

import "context"

// Segment is one provider-reported utterance, provider-relative times.
type Segment struct {
	StartMS    int
	EndMS      int
	Text       string
	Speaker    string
	Confidence float64
}

// Usage is the token accounting for a single call. Providers that do not
// report tokens return nil.
type Usage struct {
	AudioTokens  int64
	TextTokens   int64
	OutputTokens int64
}

type Provider interface {
	Transcribe(ctx context.Context, wavAudio []byte, language string) ([]Segment, *Usage, error)
	Close() error
}
