// Package pipeline holds the pure parts of the meeting pipeline: the stage
// state machine, the provider-limit windowing math and the summary chunker.
package pipeline

import "github.com/meetscribe/meetscribe/internal/models"

// transitions is the full stage graph. No transition is reversible and
// failed is reachable only from preprocessing and vad; recovery from failed
// is an explicit operator re-invocation, not a transition.
var transitions = map[string][]string{
	models.StatusUploaded:      {models.StatusPreprocessing},
	models.StatusPreprocessing: {models.StatusVAD, models.StatusFailed},
	models.StatusVAD:           {models.StatusTranscribing, models.StatusFailed},
	models.StatusTranscribing:  {models.StatusSummarizing},
	models.StatusSummarizing:   {models.StatusDone},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Advisory progress percents per stage, matching what the UI expects.
var StagePercent = map[string]int{
	models.StatusPreprocessing: 5,
	models.StatusVAD:           15,
	models.StatusTranscribing:  30,
	models.StatusSummarizing:   65,
	models.StatusDone:          100,
}
