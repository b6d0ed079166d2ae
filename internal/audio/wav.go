package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for anything other than 16-bit PCM.
var ErrUnsupportedFormat = errors.New("only 16-bit PCM WAV is supported")

// WAV holds decoded 16-bit little-endian PCM.
type WAV struct {
	SampleRate int
	Channels   int
	Data       []byte
}

const bytesPerSample = 2

// DurationMS reports the audio length in milliseconds.
func (w *WAV) DurationMS() int {
	if w.SampleRate <= 0 || w.Channels <= 0 {
		return 0
	}
	samples := len(w.Data) / bytesPerSample / w.Channels
	return int(int64(samples) * 1000 / int64(w.SampleRate))
}

// Decode parses a RIFF/WAVE container and returns its PCM payload. Compressed
// formats and sample widths other than 16 bits fail with ErrUnsupportedFormat.
func Decode(b []byte) (*WAV, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, fmt.Errorf("decode wav: not a RIFF/WAVE file")
	}

	var (
		out     WAV
		gotFmt  bool
		gotData bool
	)

	off := 12
	for off+8 <= len(b) {
		chunkID := string(b[off : off+4])
		chunkLen := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if body+chunkLen > len(b) {
			chunkLen = len(b) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, fmt.Errorf("decode wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			out.Channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			out.SampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, ErrUnsupportedFormat
			}
			gotFmt = true
		case "data":
			out.Data = b[body : body+chunkLen]
			gotData = true
		}

		// chunks are word-aligned
		off = body + chunkLen
		if chunkLen%2 == 1 {
			off++
		}
	}

	if !gotFmt || !gotData {
		return nil, fmt.Errorf("decode wav: missing fmt or data chunk")
	}
	return &out, nil
}

// Encode wraps raw 16-bit PCM in a minimal WAV container.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	blockAlign := channels * bytesPerSample
	byteRate := sampleRate * blockAlign

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}
