package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech adapts the Cloud Speech Recognize API to the Provider
// contract. The API does not report token usage, so Usage is always nil and
// cost accrual for this provider stays at zero.
type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, sampleRate int) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: int32(sampleRate),
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, wavAudio []byte, language string) ([]Segment, *Usage, error) {
	if language == "" {
		language = "en-US"
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wavAudio},
		},
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		segments []Segment
		prevEnd  int
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		endMS := prevEnd
		if r.ResultEndTime != nil {
			endMS = int(r.ResultEndTime.AsDuration().Milliseconds())
		}
		segments = append(segments, Segment{
			StartMS:    prevEnd,
			EndMS:      endMS,
			Text:       alt.Transcript,
			Confidence: float64(alt.Confidence),
		})
		prevEnd = endMS
	}
	return segments, nil, nil
}
