// Package media wraps the ffmpeg/ffprobe binaries behind a transcode
// capability so the pipeline never touches codec flags directly.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

type Transcoder interface {
	// NormalizeWAV produces mono 48kHz 16-bit PCM suitable for segmentation.
	NormalizeWAV(ctx context.Context, inPath, outPath string) error
	// PlayableM4A produces a small AAC rendition for browser playback.
	PlayableM4A(ctx context.Context, inPath, outPath string) error
	// ExtractClip cuts [startMS, endMS) out of a normalized WAV.
	ExtractClip(ctx context.Context, inPath, outPath string, startMS, endMS int) error
	// ProbeDurationMS reports container duration, 0 when unknown.
	ProbeDurationMS(ctx context.Context, path string) (int, error)
}

type FFmpeg struct {
	FFmpegBin  string
	FFprobeBin string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{FFmpegBin: "ffmpeg", FFprobeBin: "ffprobe"}
}

func (f *FFmpeg) run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", bin, args, err, stderr.String())
	}
	return nil
}

func (f *FFmpeg) NormalizeWAV(ctx context.Context, inPath, outPath string) error {
	return f.run(ctx, f.FFmpegBin,
		"-y", "-i", inPath,
		"-ac", "1", "-ar", "48000", "-c:a", "pcm_s16le",
		outPath,
	)
}

func (f *FFmpeg) PlayableM4A(ctx context.Context, inPath, outPath string) error {
	return f.run(ctx, f.FFmpegBin,
		"-y", "-i", inPath,
		"-ac", "1", "-ar", "48000", "-c:a", "aac", "-b:a", "64k",
		outPath,
	)
}

func (f *FFmpeg) ExtractClip(ctx context.Context, inPath, outPath string, startMS, endMS int) error {
	durMS := endMS - startMS
	if durMS < 0 {
		durMS = 0
	}
	return f.run(ctx, f.FFmpegBin,
		"-y",
		"-ss", formatSeconds(startMS),
		"-i", inPath,
		"-t", formatSeconds(durMS),
		"-ac", "1", "-ar", "48000", "-c:a", "pcm_s16le",
		outPath,
	)
}

func (f *FFmpeg) ProbeDurationMS(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, f.FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, err
	}
	if payload.Format.Duration == "" {
		return 0, nil
	}
	sec, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, err
	}
	return int(sec * 1000), nil
}

func formatSeconds(ms int) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}
