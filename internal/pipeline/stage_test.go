package pipeline

import (
	"testing"

	"github.com/meetscribe/meetscribe/internal/models"
)

func TestCanTransitionHappyPath(t *testing.T) {
	order := []string{
		models.StatusUploaded,
		models.StatusPreprocessing,
		models.StatusVAD,
		models.StatusTranscribing,
		models.StatusSummarizing,
		models.StatusDone,
	}
	for i := 0; i < len(order)-1; i++ {
		if !CanTransition(order[i], order[i+1]) {
			t.Errorf("expected %s -> %s to be allowed", order[i], order[i+1])
		}
	}
}

func TestCanTransitionRejectsSkipsAndReversals(t *testing.T) {
	cases := [][2]string{
		{models.StatusUploaded, models.StatusVAD},            // skip
		{models.StatusVAD, models.StatusPreprocessing},       // reversal
		{models.StatusDone, models.StatusSummarizing},        // reversal from terminal
		{models.StatusFailed, models.StatusPreprocessing},    // no automatic recovery
		{models.StatusTranscribing, models.StatusFailed},     // failed only from preprocessing/vad
		{models.StatusUploaded, models.StatusUploaded},       // self
	}
	for _, tc := range cases {
		if CanTransition(tc[0], tc[1]) {
			t.Errorf("expected %s -> %s to be rejected", tc[0], tc[1])
		}
	}
}

func TestCanTransitionToFailed(t *testing.T) {
	if !CanTransition(models.StatusPreprocessing, models.StatusFailed) {
		t.Error("preprocessing should be able to fail")
	}
	if !CanTransition(models.StatusVAD, models.StatusFailed) {
		t.Error("vad should be able to fail")
	}
}

func TestStagePercentMonotonic(t *testing.T) {
	order := []string{
		models.StatusPreprocessing,
		models.StatusVAD,
		models.StatusTranscribing,
		models.StatusSummarizing,
		models.StatusDone,
	}
	prev := -1
	for _, st := range order {
		p, ok := StagePercent[st]
		if !ok {
			t.Fatalf("no percent for %s", st)
		}
		if p <= prev {
			t.Errorf("percent for %s (%d) not greater than previous (%d)", st, p, prev)
		}
		prev = p
	}
	if StagePercent[models.StatusDone] != 100 {
		t.Errorf("done percent = %d, want 100", StagePercent[models.StatusDone])
	}
}
