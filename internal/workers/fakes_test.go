package workers

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/audio"
	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/providers/stt"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// In-memory fakes for the task tests. Repos mirror the Postgres repo
// behavior closely enough for pipeline semantics; providers are scripted.

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) put(key string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
}

func (s *fakeStore) Upload(_ context.Context, key, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.put(key, b)
	return "mem://" + key, nil
}

func (s *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) SignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

type fakeTranscoder struct {
	durationMS int
	failNorm   bool
}

func (f *fakeTranscoder) NormalizeWAV(_ context.Context, inPath, outPath string) error {
	if f.failNorm {
		return utils.ErrNotFound
	}
	b, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, b, 0o644)
}

func (f *fakeTranscoder) PlayableM4A(_ context.Context, _, outPath string) error {
	return os.WriteFile(outPath, []byte("m4a"), 0o644)
}

// ExtractClip really slices the source audio so clip-fed transcription sees
// the same samples ffmpeg would produce.
func (f *fakeTranscoder) ExtractClip(_ context.Context, inPath, outPath string, startMS, endMS int) error {
	b, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	w, err := audio.Decode(b)
	if err != nil {
		return err
	}
	part := slicePCM(w, startMS, endMS)
	return os.WriteFile(outPath, audio.Encode(part, w.SampleRate, w.Channels), 0o644)
}

func (f *fakeTranscoder) ProbeDurationMS(context.Context, string) (int, error) {
	return f.durationMS, nil
}

type fakeSTT struct {
	mu        sync.Mutex
	calls     int
	transcribe func(wavAudio []byte) ([]stt.Segment, *stt.Usage, error)
}

func (f *fakeSTT) Transcribe(_ context.Context, wavAudio []byte, _ string) ([]stt.Segment, *stt.Usage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.transcribe(wavAudio)
}

func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct{}

func (fakeLLM) SummarizeChunk(context.Context, string) (map[string]any, error) {
	return map[string]any{"agenda": []any{"intro"}}, nil
}

func (fakeLLM) ReduceSummaries(context.Context, []map[string]any) (map[string]any, error) {
	return map[string]any{
		"work_summary": map[string]any{"agenda": []any{"intro"}},
		"timeline":     []any{map[string]any{"start_ms": 0, "end_ms": 1000, "summary": "talk"}},
	}, nil
}

func (fakeLLM) Answer(context.Context, string, string) (map[string]any, error) {
	return map[string]any{"answer": "", "citations": []any{}}, nil
}

func (fakeLLM) Close() error { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (fakeEmbedder) Close() error { return nil }

type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[string]*models.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: map[string]*models.Meeting{}}
}

func (r *fakeMeetingRepo) Create(_ context.Context, m *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.meetings[m.ID] = &cp
	return nil
}

func (r *fakeMeetingRepo) GetByID(_ context.Context, id string) (*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMeetingRepo) List(context.Context, string, int) ([]models.Meeting, error) {
	return nil, nil
}

func (r *fakeMeetingRepo) SetStatusProgress(_ context.Context, id, status string, progress datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return utils.ErrNotFound
	}
	m.Status = status
	m.Progress = progress
	return nil
}

func (r *fakeMeetingRepo) AccrueUsage(_ context.Context, id string, audioTokens, textTokens, outputTokens int64, costUSD float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return utils.ErrNotFound
	}
	m.AudioTokens += audioTokens
	m.TextTokens += textTokens
	m.OutputTokens += outputTokens
	m.CostUSD += costUSD
	return nil
}

func (r *fakeMeetingRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meetings, id)
	return nil
}

type fakeMediaRepo struct {
	mu     sync.Mutex
	assets map[string]*models.MediaAsset // by meeting id
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{assets: map[string]*models.MediaAsset{}}
}

func (r *fakeMediaRepo) Create(_ context.Context, a *models.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.assets[a.MeetingID] = &cp
	return nil
}

func (r *fakeMediaRepo) GetByMeeting(_ context.Context, meetingID string) (*models.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[meetingID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeMediaRepo) Update(_ context.Context, a *models.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.assets[a.MeetingID] = &cp
	return nil
}

type fakeVadRepo struct {
	mu   sync.Mutex
	rows map[string][]models.VadSegment
}

func newFakeVadRepo() *fakeVadRepo {
	return &fakeVadRepo{rows: map[string][]models.VadSegment{}}
}

func (r *fakeVadRepo) ReplaceForMeeting(_ context.Context, meetingID string, rows []models.VadSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[meetingID] = append([]models.VadSegment(nil), rows...)
	return nil
}

func (r *fakeVadRepo) GetByID(_ context.Context, id string) (*models.VadSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rows := range r.rows {
		for i := range rows {
			if rows[i].ID == id {
				cp := rows[i]
				return &cp, nil
			}
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeVadRepo) ListByMeeting(_ context.Context, meetingID string) ([]models.VadSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VadSegment(nil), r.rows[meetingID]...), nil
}

func (r *fakeVadRepo) SetClipKey(_ context.Context, id, clipKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rows := range r.rows {
		for i := range rows {
			if rows[i].ID == id {
				rows[i].ClipObjectKey = clipKey
				return nil
			}
		}
	}
	return utils.ErrNotFound
}

type fakeSegmentRepo struct {
	mu   sync.Mutex
	rows []models.TranscriptSegment
}

func (r *fakeSegmentRepo) InsertBatch(_ context.Context, rows []models.TranscriptSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeSegmentRepo) GetByID(_ context.Context, id string) (*models.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeSegmentRepo) ListByMeeting(_ context.Context, meetingID string) ([]models.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TranscriptSegment
	for _, s := range r.rows {
		if s.MeetingID == meetingID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMS < out[j].StartMS })
	return out, nil
}

func (r *fakeSegmentRepo) ListContained(_ context.Context, meetingID string, startMS, endMS int) ([]models.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TranscriptSegment
	for _, s := range r.rows {
		if s.MeetingID == meetingID && s.StartMS >= startMS && s.EndMS <= endMS {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSegmentRepo) UpdateText(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Text = text
			return nil
		}
	}
	return utils.ErrNotFound
}

type fakeRevisionRepo struct {
	mu   sync.Mutex
	rows []models.TranscriptRevision
}

func (r *fakeRevisionRepo) MaxRevisionNo(_ context.Context, meetingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, rev := range r.rows {
		if rev.MeetingID == meetingID && rev.RevisionNo > max {
			max = rev.RevisionNo
		}
	}
	return max, nil
}

func (r *fakeRevisionRepo) Create(_ context.Context, rev *models.TranscriptRevision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *rev)
	return nil
}

func (r *fakeRevisionRepo) ListByMeeting(_ context.Context, meetingID string) ([]models.TranscriptRevision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TranscriptRevision
	for _, rev := range r.rows {
		if rev.MeetingID == meetingID {
			out = append(out, rev)
		}
	}
	return out, nil
}

type fakeSpeakerRepo struct{}

func (fakeSpeakerRepo) Upsert(context.Context, *models.SpeakerLabel) error { return nil }
func (fakeSpeakerRepo) ListByMeeting(context.Context, string) ([]models.SpeakerLabel, error) {
	return nil, nil
}

type fakeEmbeddingRepo struct {
	mu   sync.Mutex
	rows []models.SegmentEmbedding
}

func (r *fakeEmbeddingRepo) InsertBatch(_ context.Context, rows []models.SegmentEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeEmbeddingRepo) EmbeddedSegmentIDs(_ context.Context, meetingID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, e := range r.rows {
		if e.MeetingID == meetingID {
			out[e.SegmentID] = true
		}
	}
	return out, nil
}

func (r *fakeEmbeddingRepo) NearestSegments(context.Context, string, []float32, int) ([]models.TranscriptSegment, error) {
	return nil, nil
}

type fakeSummaryRepo struct {
	mu   sync.Mutex
	rows map[string][]models.Summary
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{rows: map[string][]models.Summary{}}
}

func (r *fakeSummaryRepo) ReplaceForMeeting(_ context.Context, meetingID string, rows []models.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[meetingID] = append([]models.Summary(nil), rows...)
	return nil
}

func (r *fakeSummaryRepo) ListByMeeting(_ context.Context, meetingID string) ([]models.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Summary(nil), r.rows[meetingID]...), nil
}
