// Package vad turns normalized mono 16-bit PCM into a list of speech
// segments. The per-frame speech decision is pluggable so the detector can
// be swapped without touching the merge/filter/pad logic.
package vad

// Classifier decides whether a single fixed-length frame contains speech.
type Classifier interface {
	IsSpeech(frame []byte, sampleRate int) bool
}

type Config struct {
	FrameMS        int
	Aggressiveness int
	MinSegmentMS   int
	MergeGapMS     int
	PadMS          int
}

func DefaultConfig() Config {
	return Config{
		FrameMS:        30,
		Aggressiveness: 0,
		MinSegmentMS:   300,
		MergeGapMS:     200,
		PadMS:          250,
	}
}

// Segment is one detected speech region. Padded bounds are clamped to
// [0, audio length].
type Segment struct {
	StartMS       int
	EndMS         int
	PaddedStartMS int
	PaddedEndMS   int
	EnergyScore   *float64
}

type Segmenter struct {
	cls Classifier
	cfg Config
}

func NewSegmenter(cls Classifier, cfg Config) *Segmenter {
	if cfg.FrameMS <= 0 {
		cfg = DefaultConfig()
	}
	return &Segmenter{cls: cls, cfg: cfg}
}

// Detect runs the trigger loop over fixed-length frames, then merges regions
// separated by less than MergeGapMS, drops regions shorter than MinSegmentMS
// and pads the survivors. No speech yields an empty, non-nil-safe result;
// callers treat empty as a distinct terminal condition, not an error.
func (s *Segmenter) Detect(pcm []byte, sampleRate int) []Segment {
	frameBytes := sampleRate * s.cfg.FrameMS / 1000 * 2
	if frameBytes <= 0 || len(pcm) < frameBytes {
		return nil
	}

	type raw struct{ start, end int }
	var (
		regions   []raw
		triggered bool
		startMS   int
		tsMS      int
	)

	for off := 0; off+frameBytes <= len(pcm); off += frameBytes {
		frame := pcm[off : off+frameBytes]
		speech := s.cls.IsSpeech(frame, sampleRate)

		if speech && !triggered {
			triggered = true
			startMS = tsMS
		}
		if triggered && !speech {
			regions = append(regions, raw{startMS, tsMS + s.cfg.FrameMS})
			triggered = false
		}
		tsMS += s.cfg.FrameMS
	}
	if triggered {
		// stream ended mid-speech: close at the last frame boundary
		regions = append(regions, raw{startMS, tsMS})
	}
	if len(regions) == 0 {
		return nil
	}

	var merged []raw
	for _, r := range regions {
		if len(merged) > 0 && r.start-merged[len(merged)-1].end < s.cfg.MergeGapMS {
			merged[len(merged)-1].end = r.end
			continue
		}
		merged = append(merged, r)
	}

	audioLenMS := int(int64(len(pcm)) / 2 * 1000 / int64(sampleRate))
	var out []Segment
	for _, r := range merged {
		if r.end-r.start < s.cfg.MinSegmentMS {
			continue
		}
		padStart := r.start - s.cfg.PadMS
		if padStart < 0 {
			padStart = 0
		}
		padEnd := r.end + s.cfg.PadMS
		if padEnd > audioLenMS {
			padEnd = audioLenMS
		}
		out = append(out, Segment{
			StartMS:       r.start,
			EndMS:         r.end,
			PaddedStartMS: padStart,
			PaddedEndMS:   padEnd,
		})
	}
	return out
}
