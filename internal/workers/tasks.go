// Package workers runs the pipeline jobs delivered over the Redis stream:
// ingest, vad, the transcribe fan-out, consolidate and summarize.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/audio"
	"github.com/meetscribe/meetscribe/internal/media"
	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/pipeline"
	"github.com/meetscribe/meetscribe/internal/providers/llm"
	"github.com/meetscribe/meetscribe/internal/providers/stt"
	"github.com/meetscribe/meetscribe/internal/queue"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/storage"
	"github.com/meetscribe/meetscribe/internal/utils"
	"github.com/meetscribe/meetscribe/internal/vad"
)

// Tasks holds every dependency the job handlers need. A nil Logger falls
// back to the logrus standard logger so tests can leave it unset.
type Tasks struct {
	Settings config.Settings

	Meetings    services.MeetingService
	Transcripts services.TranscriptService
	Index       services.IndexService

	Media       pgrepo.MediaAssetRepo
	VadSegments pgrepo.VadSegmentRepo
	Segments    pgrepo.TranscriptSegmentRepo
	Summaries   pgrepo.SummaryRepo

	Store      storage.ObjectStore
	Transcoder media.Transcoder
	STT        stt.Provider
	LLM        llm.Provider
	Scheduler  queue.Scheduler
	Segmenter  *vad.Segmenter

	Logger *logrus.Logger
}

func (t *Tasks) logger() *logrus.Logger {
	if t.Logger == nil {
		return logrus.StandardLogger()
	}
	return t.Logger
}

// Dispatch routes one delivered job to its handler. Unknown tasks are an
// error so a stale producer cannot silently drop work.
func (t *Tasks) Dispatch(ctx context.Context, job queue.Job) error {
	meetingID := job.Args["meeting_id"]
	if meetingID == "" {
		return errors.New("job missing meeting_id")
	}

	switch job.Task {
	case queue.TaskIngest:
		return t.Ingest(ctx, meetingID, job.Args["original_key"])
	case queue.TaskVad:
		return t.RunVad(ctx, meetingID)
	case queue.TaskTranscribe:
		segmentID := job.Args["segment_id"]
		if segmentID == "" {
			return errors.New("transcribe job missing segment_id")
		}
		return t.TranscribeSegment(ctx, meetingID, segmentID)
	case queue.TaskConsolidate:
		return t.Consolidate(ctx, meetingID)
	case queue.TaskSummarize:
		return t.Summarize(ctx, meetingID)
	default:
		return fmt.Errorf("unknown task %q", job.Task)
	}
}

// Ingest normalizes the uploaded audio, renders the playable copy and hands
// off to vad. A missing upload is a pipeline failure, not a retryable error.
func (t *Tasks) Ingest(ctx context.Context, meetingID, originalKey string) error {
	log := t.logger().WithFields(logrus.Fields{"task": queue.TaskIngest, "meeting_id": meetingID})

	if err := t.Meetings.Advance(ctx, meetingID, models.StatusPreprocessing, nil); err != nil {
		return err
	}

	asset, err := t.Media.GetByMeeting(ctx, meetingID)
	if err != nil {
		return t.failMeeting(ctx, log, meetingID, models.StatusPreprocessing, utils.CodeMissingAsset, "uploaded audio not found")
	}
	if originalKey == "" {
		originalKey = asset.OriginalObjectKey
	}

	inPath, cleanupIn, err := t.downloadToTemp(ctx, originalKey, "original-*")
	if err != nil {
		return t.failMeeting(ctx, log, meetingID, models.StatusPreprocessing, utils.CodeMissingAsset, "uploaded audio not found")
	}
	defer cleanupIn()

	wavPath, cleanupWav, err := tempPath("normalized-*.wav")
	if err != nil {
		return err
	}
	defer cleanupWav()
	if err := t.Transcoder.NormalizeWAV(ctx, inPath, wavPath); err != nil {
		log.WithError(err).Error("normalize failed")
		return t.failMeeting(ctx, log, meetingID, models.StatusPreprocessing, utils.CodeUnsupportedFormat, "audio could not be decoded")
	}

	m4aPath, cleanupM4A, err := tempPath("playable-*.m4a")
	if err != nil {
		return err
	}
	defer cleanupM4A()
	if err := t.Transcoder.PlayableM4A(ctx, inPath, m4aPath); err != nil {
		log.WithError(err).Error("playable transcode failed")
		return t.failMeeting(ctx, log, meetingID, models.StatusPreprocessing, utils.CodeUnsupportedFormat, "audio could not be decoded")
	}

	if err := t.uploadFile(ctx, storage.NormalizedKey(meetingID), "audio/wav", wavPath); err != nil {
		return err
	}
	if err := t.uploadFile(ctx, storage.PlayableKey(meetingID), "audio/mp4", m4aPath); err != nil {
		return err
	}

	durMS, err := t.Transcoder.ProbeDurationMS(ctx, wavPath)
	if err != nil {
		log.WithError(err).Warn("duration probe failed")
	}

	asset.NormalizedObjectKey = storage.NormalizedKey(meetingID)
	asset.PlayableObjectKey = storage.PlayableKey(meetingID)
	asset.DurationMS = durMS
	if err := t.Media.Update(ctx, asset); err != nil {
		return err
	}

	_, err = t.Scheduler.Enqueue(ctx, queue.TaskVad, map[string]string{"meeting_id": meetingID})
	return err
}

// RunVad detects speech regions, extracts their clips and fans out one
// transcription job per segment, gated by a consolidate join job.
func (t *Tasks) RunVad(ctx context.Context, meetingID string) error {
	log := t.logger().WithFields(logrus.Fields{"task": queue.TaskVad, "meeting_id": meetingID})

	if err := t.Meetings.Advance(ctx, meetingID, models.StatusVAD, nil); err != nil {
		return err
	}

	asset, err := t.Media.GetByMeeting(ctx, meetingID)
	if err != nil || asset.NormalizedObjectKey == "" {
		return t.failMeeting(ctx, log, meetingID, models.StatusVAD, utils.CodeMissingAsset, "missing normalized audio")
	}

	wav, err := t.loadNormalized(ctx, meetingID)
	if err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return t.failMeeting(ctx, log, meetingID, models.StatusVAD, utils.CodeUnsupportedFormat, "normalized audio has unsupported format")
		}
		return err
	}

	detected := t.Segmenter.Detect(wav.Data, wav.SampleRate)
	if len(detected) == 0 {
		return t.failMeeting(ctx, log, meetingID, models.StatusVAD, utils.CodeNoSpeech, "no speech detected")
	}

	rows := make([]models.VadSegment, len(detected))
	for i, seg := range detected {
		rows[i] = models.VadSegment{
			ID:            uuid.NewString(),
			MeetingID:     meetingID,
			StartMS:       seg.StartMS,
			EndMS:         seg.EndMS,
			PaddedStartMS: seg.PaddedStartMS,
			PaddedEndMS:   seg.PaddedEndMS,
			EnergyScore:   seg.EnergyScore,
			CreatedAt:     time.Now().UTC(),
		}
	}
	if err := t.VadSegments.ReplaceForMeeting(ctx, meetingID, rows); err != nil {
		return err
	}

	t.extractClips(ctx, log, meetingID, rows)

	if err := t.Meetings.Advance(ctx, meetingID, models.StatusTranscribing, map[string]any{
		"segments": len(rows),
	}); err != nil {
		return err
	}

	deps := make([]string, 0, len(rows))
	for _, seg := range rows {
		jobID, err := t.Scheduler.Enqueue(ctx, queue.TaskTranscribe, map[string]string{
			"meeting_id": meetingID,
			"segment_id": seg.ID,
		})
		if err != nil {
			return err
		}
		deps = append(deps, jobID)
	}

	_, err = t.Scheduler.EnqueueAfterAll(ctx, deps, queue.TaskConsolidate, map[string]string{"meeting_id": meetingID})
	return err
}

// extractClips is best-effort: a failed clip loses the preview, never the run.
func (t *Tasks) extractClips(ctx context.Context, log *logrus.Entry, meetingID string, rows []models.VadSegment) {
	inPath, cleanup, err := t.downloadToTemp(ctx, storage.NormalizedKey(meetingID), "clipsrc-*.wav")
	if err != nil {
		log.WithError(err).Warn("clip source download failed")
		return
	}
	defer cleanup()

	for _, seg := range rows {
		outPath, cleanupOut, err := tempPath("clip-*.wav")
		if err != nil {
			continue
		}
		if err := t.Transcoder.ExtractClip(ctx, inPath, outPath, seg.PaddedStartMS, seg.PaddedEndMS); err != nil {
			log.WithError(err).WithField("segment_id", seg.ID).Warn("clip extract failed")
			cleanupOut()
			continue
		}
		key := storage.ClipKey(meetingID, seg.ID)
		if err := t.uploadFile(ctx, key, "audio/wav", outPath); err != nil {
			log.WithError(err).WithField("segment_id", seg.ID).Warn("clip upload failed")
			cleanupOut()
			continue
		}
		cleanupOut()
		if err := t.VadSegments.SetClipKey(ctx, seg.ID, key); err != nil {
			log.WithError(err).WithField("segment_id", seg.ID).Warn("clip key update failed")
		}
	}
}

// TranscribeSegment windows one speech segment's padded audio and sends each
// window to the provider. Windows already covered by persisted text are
// skipped, so redelivery never duplicates rows or usage.
func (t *Tasks) TranscribeSegment(ctx context.Context, meetingID, segmentID string) error {
	seg, err := t.VadSegments.GetByID(ctx, segmentID)
	if err != nil {
		return err
	}

	existing, err := t.Segments.ListContained(ctx, meetingID, seg.PaddedStartMS, seg.PaddedEndMS)
	if err != nil {
		return err
	}

	wav, err := t.loadSegmentAudio(ctx, seg)
	if err != nil {
		return err
	}

	maxPartMS := pipeline.MaxPartMS(t.Settings.STTByteBudget, wav.SampleRate, t.Settings.STTSafetyMargin)
	for _, w := range pipeline.Windows(wav.DurationMS(), maxPartMS) {
		if pipeline.WindowCovered(existing, seg.PaddedStartMS+w.StartMS, seg.PaddedStartMS+w.EndMS) {
			continue
		}
		part := slicePCM(wav, w.StartMS, w.EndMS)
		if len(part) == 0 {
			continue
		}
		wavBytes := audio.Encode(part, wav.SampleRate, wav.Channels)
		if err := t.transcribePart(ctx, meetingID, seg.PaddedStartMS+w.StartMS, wavBytes); err != nil {
			return err
		}
	}
	return nil
}

// transcribePart commits one provider call: rows and usage land before the
// next window runs, so a mid-segment failure resumes at the first window
// without text.
func (t *Tasks) transcribePart(ctx context.Context, meetingID string, offsetMS int, wavBytes []byte) error {
	segs, usage, err := t.STT.Transcribe(ctx, wavBytes, t.Settings.STTLanguage)
	if err != nil {
		return err
	}

	rows := make([]models.TranscriptSegment, 0, len(segs))
	for _, seg := range segs {
		absStart, absEnd := pipeline.Remap(offsetMS, seg.StartMS, seg.EndMS)
		speaker := pipeline.NormalizeSpeaker(seg.Speaker)
		if speaker == "" {
			speaker = "spk_1"
		}
		row := models.TranscriptSegment{
			ID:         uuid.NewString(),
			MeetingID:  meetingID,
			StartMS:    absStart,
			EndMS:      absEnd,
			SpeakerKey: speaker,
			Text:       seg.Text,
			CreatedAt:  time.Now().UTC(),
		}
		if seg.Confidence > 0 {
			c := seg.Confidence
			row.Confidence = &c
		}
		rows = append(rows, row)
	}
	if err := t.Segments.InsertBatch(ctx, rows); err != nil {
		return err
	}

	if usage != nil {
		cost := pipeline.STTCost(usage.AudioTokens, usage.TextTokens, usage.OutputTokens,
			t.Settings.STTInputRatePerM, t.Settings.STTOutputRatePer)
		if err := t.Meetings.AccrueUsage(ctx, meetingID, usage.AudioTokens, usage.TextTokens, usage.OutputTokens, cost); err != nil {
			return err
		}
	}
	return nil
}

// loadSegmentAudio prefers the extracted clip; when the clip is missing or
// unreadable it slices the padded range out of the normalized audio, which
// carries the same samples.
func (t *Tasks) loadSegmentAudio(ctx context.Context, seg *models.VadSegment) (*audio.WAV, error) {
	if seg.ClipObjectKey != "" {
		if wav, err := t.loadWAV(ctx, seg.ClipObjectKey); err == nil {
			return wav, nil
		}
	}
	wav, err := t.loadNormalized(ctx, seg.MeetingID)
	if err != nil {
		return nil, err
	}
	return &audio.WAV{
		SampleRate: wav.SampleRate,
		Channels:   wav.Channels,
		Data:       slicePCM(wav, seg.PaddedStartMS, seg.PaddedEndMS),
	}, nil
}

// Consolidate runs once every transcription window has reached a terminal
// state, failed windows included: whatever text landed is snapshotted,
// indexed and handed to summarize.
func (t *Tasks) Consolidate(ctx context.Context, meetingID string) error {
	log := t.logger().WithFields(logrus.Fields{"task": queue.TaskConsolidate, "meeting_id": meetingID})

	if _, err := t.Transcripts.Snapshot(ctx, meetingID); err != nil {
		return err
	}

	n, err := t.Index.EmbedNewSegments(ctx, meetingID)
	if err != nil {
		return err
	}
	log.WithField("embedded", n).Info("transcript consolidated")

	if err := t.Meetings.Advance(ctx, meetingID, models.StatusSummarizing, nil); err != nil {
		return err
	}
	_, err = t.Scheduler.Enqueue(ctx, queue.TaskSummarize, map[string]string{"meeting_id": meetingID})
	return err
}

// Summarize map-reduces the transcript into the work summary and timeline
// documents and closes the run.
func (t *Tasks) Summarize(ctx context.Context, meetingID string) error {
	segs, err := t.Segments.ListByMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	chunks := pipeline.BuildChunks(segs, t.Settings.SummaryChunkChars)

	var rows []models.Summary
	if len(chunks) > 0 {
		partials := make([]map[string]any, 0, len(chunks))
		for _, chunk := range chunks {
			partial, err := t.LLM.SummarizeChunk(ctx, chunk)
			if err != nil {
				return err
			}
			partials = append(partials, partial)
		}

		final, err := t.LLM.ReduceSummaries(ctx, partials)
		if err != nil {
			return err
		}

		rows, err = summaryRows(meetingID, final)
		if err != nil {
			return err
		}
	}

	if err := t.Summaries.ReplaceForMeeting(ctx, meetingID, rows); err != nil {
		return err
	}
	return t.Meetings.Advance(ctx, meetingID, models.StatusDone, nil)
}

func summaryRows(meetingID string, final map[string]any) ([]models.Summary, error) {
	rows := make([]models.Summary, 0, 2)
	for kind, key := range map[string]string{
		models.SummaryKindWork:     "work_summary",
		models.SummaryKindTimeline: "timeline",
	} {
		content, ok := final[key]
		if !ok {
			continue
		}
		b, err := json.Marshal(content)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.Summary{
			ID:        uuid.NewString(),
			MeetingID: meetingID,
			Kind:      kind,
			Content:   datatypes.JSON(b),
			CreatedAt: time.Now().UTC(),
		})
	}
	return rows, nil
}

// failMeeting marks the run failed and consumes the job: pipeline-level
// failures are recorded on the meeting, not retried by the broker.
func (t *Tasks) failMeeting(ctx context.Context, log *logrus.Entry, meetingID, stage string, code utils.Code, reason string) error {
	log.WithFields(logrus.Fields{"code": code, "reason": reason}).Warn("pipeline run failed")
	if err := t.Meetings.Fail(ctx, meetingID, stage, code, reason); err != nil {
		log.WithError(err).Error("failed to record pipeline failure")
	}
	return nil
}

func (t *Tasks) loadNormalized(ctx context.Context, meetingID string) (*audio.WAV, error) {
	return t.loadWAV(ctx, storage.NormalizedKey(meetingID))
}

func (t *Tasks) loadWAV(ctx context.Context, key string) (*audio.WAV, error) {
	rc, err := t.Store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return audio.Decode(b)
}

func (t *Tasks) downloadToTemp(ctx context.Context, key, pattern string) (string, func(), error) {
	rc, err := t.Store.Download(ctx, key)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func (t *Tasks) uploadFile(ctx context.Context, key, contentType, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = t.Store.Upload(ctx, key, contentType, f)
	return err
}

func tempPath(pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	f.Close()
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// slicePCM cuts [startMS, endMS) out of the decoded PCM, clamped to the
// audio bounds.
func slicePCM(w *audio.WAV, startMS, endMS int) []byte {
	bytesPerMS := w.SampleRate * w.Channels * 2 / 1000
	start := startMS * bytesPerMS
	end := endMS * bytesPerMS
	if start < 0 {
		start = 0
	}
	if end > len(w.Data) {
		end = len(w.Data)
	}
	if start >= end {
		return nil
	}
	return w.Data[start:end]
}
