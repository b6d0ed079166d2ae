package config

import (
	"os"
	"strconv"
	"time"
)

// Settings is the process-wide configuration, loaded once from the
// environment and passed into components at construction.
type Settings struct {
	Port      string
	GCSBucket string

	// segmentation
	FrameMS        int
	Aggressiveness int
	MinSegmentMS   int
	MergeGapMS     int
	PadMS          int
	SampleRate     int

	// transcription windowing and pricing
	STTByteBudget    int64
	STTSafetyMargin  float64
	STTLanguage      string
	STTInputRatePerM float64 // USD per 1M input tokens
	STTOutputRatePer float64 // USD per 1M output tokens

	SummaryChunkChars int
	QATopN            int

	WorkerConcurrency int
	TaskTimeout       time.Duration
	JobStream         string

	STTProvider string // "openai" | "google"
	LLMProvider string // "openai" | "vertex"

	OpenAIAPIKey  string
	OpenAIBaseURL string
	STTModel      string
	ChatModel     string
	EmbedModel    string

	VertexProject  string
	VertexLocation string
	VertexModel    string
}

func Load() Settings {
	return Settings{
		Port:      envStr("PORT", "8080"),
		GCSBucket: envStr("GCS_BUCKET", ""),

		FrameMS:        envInt("VAD_FRAME_MS", 30),
		Aggressiveness: envInt("VAD_AGGRESSIVENESS", 0),
		MinSegmentMS:   envInt("VAD_MIN_SEGMENT_MS", 300),
		MergeGapMS:     envInt("VAD_MERGE_GAP_MS", 200),
		PadMS:          envInt("VAD_PAD_MS", 250),
		SampleRate:     envInt("AUDIO_SAMPLE_RATE", 48000),

		STTByteBudget:    int64(envInt("STT_BYTE_BUDGET", 24<<20)),
		STTSafetyMargin:  envFloat("STT_SAFETY_MARGIN", 0.9),
		STTLanguage:      envStr("STT_LANGUAGE", ""),
		STTInputRatePerM: envFloat("STT_INPUT_RATE_PER_M", 2.5),
		STTOutputRatePer: envFloat("STT_OUTPUT_RATE_PER_M", 10.0),

		SummaryChunkChars: envInt("SUMMARY_CHUNK_CHARS", 4000),
		QATopN:            envInt("QA_TOP_N", 8),

		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 2),
		TaskTimeout:       time.Duration(envInt("TASK_TIMEOUT_SECONDS", 900)) * time.Second,
		JobStream:         envStr("JOB_STREAM", "pipeline:jobs"),

		STTProvider: envStr("STT_PROVIDER", "openai"),
		LLMProvider: envStr("LLM_PROVIDER", "openai"),

		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", ""),
		STTModel:      envStr("OPENAI_STT_MODEL", "whisper-1"),
		ChatModel:     envStr("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:    envStr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		VertexProject:  envStr("VERTEX_PROJECT", ""),
		VertexLocation: envStr("VERTEX_LOCATION", "us-central1"),
		VertexModel:    envStr("VERTEX_MODEL", "gemini-1.5-flash"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
