package vad

import (
	"encoding/binary"
	"math"
)

// EnergyClassifier flags a frame as speech when its RMS amplitude clears a
// threshold. Aggressiveness 0-3 raises the bar, mirroring the usual VAD
// sensitivity scale.
type EnergyClassifier struct {
	Threshold float64
}

func NewEnergyClassifier(aggressiveness int) *EnergyClassifier {
	if aggressiveness < 0 {
		aggressiveness = 0
	}
	if aggressiveness > 3 {
		aggressiveness = 3
	}
	return &EnergyClassifier{Threshold: 200 + 150*float64(aggressiveness)}
}

func (c *EnergyClassifier) IsSpeech(frame []byte, _ int) bool {
	return RMS(frame) >= c.Threshold
}

// RMS computes root-mean-square amplitude over 16-bit little-endian samples.
func RMS(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[2*i:]))
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(n))
}
