package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/meetscribe/meetscribe/internal/models"
)

// Window is a sub-range of a padded clip, in clip-relative milliseconds.
type Window struct {
	StartMS int
	EndMS   int
}

// Windows splits totalMS into consecutive parts of at most maxPartMS.
// The result is contiguous, non-overlapping and covers [0, totalMS) exactly;
// non-positive totalMS yields no windows.
func Windows(totalMS, maxPartMS int) []Window {
	if totalMS <= 0 || maxPartMS <= 0 {
		return nil
	}
	if totalMS <= maxPartMS {
		return []Window{{0, totalMS}}
	}
	var out []Window
	for start := 0; start < totalMS; start += maxPartMS {
		end := start + maxPartMS
		if end > totalMS {
			end = totalMS
		}
		out = append(out, Window{start, end})
	}
	return out
}

// MaxPartMS derives the largest window duration whose payload stays under
// byteBudget for mono 16-bit PCM at sampleRate, shrunk by a safety margin.
func MaxPartMS(byteBudget int64, sampleRate int, margin float64) int {
	if byteBudget <= 0 || sampleRate <= 0 {
		return 0
	}
	if margin <= 0 || margin > 1 {
		margin = 0.9
	}
	bytesPerMS := float64(sampleRate) * 2 / 1000
	return int(float64(byteBudget) * margin / bytesPerMS)
}

// Remap converts provider-relative times to the meeting's absolute timeline.
// offsetMS is the clip's padded start plus the window offset.
func Remap(offsetMS, startMS, endMS int) (int, int) {
	return offsetMS + startMS, offsetMS + endMS
}

// WindowCovered reports whether any existing segment lies fully inside the
// absolute range [startMS, endMS]. A covered window is skipped on re-runs so
// a resumed meeting never duplicates text or usage.
func WindowCovered(existing []models.TranscriptSegment, startMS, endMS int) bool {
	for _, seg := range existing {
		if seg.StartMS >= startMS && seg.EndMS <= endMS {
			return true
		}
	}
	return false
}

// STTCost prices one provider call. Rates are USD per million tokens.
func STTCost(audioTokens, textTokens, outputTokens int64, inputRate, outputRate float64) float64 {
	return (float64(audioTokens+textTokens)*inputRate + float64(outputTokens)*outputRate) / 1e6
}

// NormalizeSpeaker maps provider speaker labels ("Speaker 2", "SPEAKER_00")
// to the canonical spk_N form. Already-canonical keys pass through; anything
// unparseable (including empty input) returns "".
func NormalizeSpeaker(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "spk_") {
		return s
	}
	lower := strings.ToLower(s)
	lower = strings.TrimPrefix(lower, "speaker")
	lower = strings.TrimLeftFunc(lower, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	n, err := strconv.Atoi(lower)
	if err != nil {
		return ""
	}
	return "spk_" + strconv.Itoa(n)
}
