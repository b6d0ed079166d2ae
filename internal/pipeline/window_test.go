package pipeline

import (
	"math"
	"testing"

	"github.com/meetscribe/meetscribe/internal/models"
)

func TestWindowsSplitsExactly(t *testing.T) {
	got := Windows(1000, 400)
	want := []Window{{0, 400}, {400, 800}, {800, 1000}}
	if len(got) != len(want) {
		t.Fatalf("got %d windows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowsSingleWhenUnderBudget(t *testing.T) {
	got := Windows(300, 400)
	if len(got) != 1 || got[0] != (Window{0, 300}) {
		t.Fatalf("got %v, want [{0 300}]", got)
	}
}

func TestWindowsEmptyInput(t *testing.T) {
	if got := Windows(0, 400); got != nil {
		t.Errorf("Windows(0, 400) = %v, want nil", got)
	}
	if got := Windows(1000, 0); got != nil {
		t.Errorf("Windows(1000, 0) = %v, want nil", got)
	}
}

func TestMaxPartMS(t *testing.T) {
	// 24MiB budget, 48kHz mono 16-bit, 0.9 margin
	got := MaxPartMS(24<<20, 48000, 0.9)
	budget := float64(24 << 20)
	want := int(budget * 0.9 / 96.0)
	if got != want {
		t.Errorf("MaxPartMS = %d, want %d", got, want)
	}
	if got := MaxPartMS(0, 48000, 0.9); got != 0 {
		t.Errorf("zero budget: got %d, want 0", got)
	}
}

func TestRemap(t *testing.T) {
	start, end := Remap(1200, 100, 250)
	if start != 1300 || end != 1450 {
		t.Errorf("Remap = (%d, %d), want (1300, 1450)", start, end)
	}
}

func TestWindowCovered(t *testing.T) {
	existing := []models.TranscriptSegment{
		{StartMS: 100, EndMS: 200},
		{StartMS: 400, EndMS: 500},
	}

	if !WindowCovered(existing, 0, 300) {
		t.Error("window [0,300] contains [100,200], want covered")
	}
	if WindowCovered(existing, 150, 450) {
		t.Error("window [150,450] contains no full segment, want not covered")
	}
	if WindowCovered(nil, 0, 1000) {
		t.Error("no segments, want not covered")
	}
}

func TestSTTCost(t *testing.T) {
	got := STTCost(1000, 500, 2000, 2.5, 10.0)
	want := (1500*2.5 + 2000*10.0) / 1e6
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("STTCost = %v, want %v", got, want)
	}
}

func TestNormalizeSpeaker(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Speaker 2", "spk_2"},
		{"SPEAKER_00", "spk_0"},
		{"speaker-3", "spk_3"},
		{"spk_7", "spk_7"},
		{"7", "spk_7"},
		{"", ""},
		{"Alice", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSpeaker(tc.in); got != tc.want {
			t.Errorf("NormalizeSpeaker(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
