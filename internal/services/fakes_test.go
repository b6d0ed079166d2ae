package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// In-memory repo fakes shared by the service tests.

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

func (r *fakeMeetingRepo) List(_ context.Context, folder string, limit int) ([]models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Meeting
	for _, m := range r.meetings {
		if folder == "" || m.Folder == folder {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
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
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNo > out[j].RevisionNo })
	return out, nil
}

type fakeSpeakerRepo struct {
	mu   sync.Mutex
	rows []models.SpeakerLabel
}

func (r *fakeSpeakerRepo) Upsert(_ context.Context, label *models.SpeakerLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].MeetingID == label.MeetingID && r.rows[i].SpeakerKey == label.SpeakerKey {
			r.rows[i].DisplayName = label.DisplayName
			return nil
		}
	}
	r.rows = append(r.rows, *label)
	return nil
}

func (r *fakeSpeakerRepo) ListByMeeting(_ context.Context, meetingID string) ([]models.SpeakerLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SpeakerLabel
	for _, l := range r.rows {
		if l.MeetingID == meetingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeShareRepo struct {
	mu    sync.Mutex
	links map[string]*models.ShareLink
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{links: map[string]*models.ShareLink{}}
}

func (r *fakeShareRepo) Create(_ context.Context, link *models.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *fakeShareRepo) GetByID(_ context.Context, id string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeShareRepo) Revoke(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok || l.RevokedAt != nil {
		return utils.ErrNotFound
	}
	l.RevokedAt = &at
	return nil
}

type fakeEmbeddingRepo struct {
	mu       sync.Mutex
	rows     []models.SegmentEmbedding
	segments *fakeSegmentRepo
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

func (r *fakeEmbeddingRepo) NearestSegments(ctx context.Context, meetingID string, _ []float32, limit int) ([]models.TranscriptSegment, error) {
	r.mu.Lock()
	embedded := map[string]bool{}
	for _, e := range r.rows {
		if e.MeetingID == meetingID {
			embedded[e.SegmentID] = true
		}
	}
	r.mu.Unlock()

	segs, _ := r.segments.ListByMeeting(ctx, meetingID)
	var out []models.TranscriptSegment
	for _, s := range segs {
		if embedded[s.ID] {
			out = append(out, s)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Close() error { return nil }

type fakeLLM struct {
	answer map[string]any
}

func (f *fakeLLM) SummarizeChunk(context.Context, string) (map[string]any, error) {
	return map[string]any{"agenda": []any{}}, nil
}

func (f *fakeLLM) ReduceSummaries(context.Context, []map[string]any) (map[string]any, error) {
	return map[string]any{"work_summary": map[string]any{}, "timeline": []any{}}, nil
}

func (f *fakeLLM) Answer(context.Context, string, string) (map[string]any, error) {
	if f.answer != nil {
		return f.answer, nil
	}
	return map[string]any{"answer": "ok", "citations": []any{}}, nil
}

func (f *fakeLLM) Close() error { return nil }

type capturedProgress struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (p *capturedProgress) Publish(_ context.Context, _ string, payload map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
}
