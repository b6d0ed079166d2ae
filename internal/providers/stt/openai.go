package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// OpenAIWhisper calls an OpenAI-compatible /v1/audio/transcriptions endpoint
// with verbose_json output and segment timestamps.
type OpenAIWhisper struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

func NewOpenAIWhisper(baseURL, apiKey, model string) *OpenAIWhisper {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIWhisper{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (o *OpenAIWhisper) Close() error { return nil }

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	// present when the endpoint runs diarization
	Speaker string `json:"speaker,omitempty"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Usage    *struct {
		InputTokenDetails struct {
			AudioTokens int64 `json:"audio_tokens"`
			TextTokens  int64 `json:"text_tokens"`
		} `json:"input_token_details"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (o *OpenAIWhisper) Transcribe(ctx context.Context, wavAudio []byte, language string) ([]Segment, *Usage, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, nil, err
	}
	if _, err := part.Write(wavAudio); err != nil {
		return nil, nil, err
	}
	_ = w.WriteField("model", o.Model)
	_ = w.WriteField("response_format", "verbose_json")
	_ = w.WriteField("timestamp_granularities[]", "segment")
	if language != "" {
		_ = w.WriteField("language", language)
	}
	if err := w.Close(); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("transcription endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var decoded whisperResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, nil, fmt.Errorf("decode transcription response: %w", err)
	}

	var usage *Usage
	if decoded.Usage != nil {
		usage = &Usage{
			AudioTokens:  decoded.Usage.InputTokenDetails.AudioTokens,
			TextTokens:   decoded.Usage.InputTokenDetails.TextTokens,
			OutputTokens: decoded.Usage.OutputTokens,
		}
	}

	segments := make([]Segment, 0, len(decoded.Segments))
	for _, seg := range decoded.Segments {
		segments = append(segments, Segment{
			StartMS: int(seg.Start * 1000),
			EndMS:   int(seg.End * 1000),
			Text:    seg.Text,
			Speaker: seg.Speaker,
		})
	}
	if len(segments) == 0 && decoded.Text != "" {
		segments = append(segments, Segment{Text: decoded.Text})
	}
	return segments, usage, nil
}
