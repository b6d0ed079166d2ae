package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/models"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// TranscriptService reads the transcript and, as the consolidator, produces
// its append-only revision snapshots.
type TranscriptService interface {
	ListSegments(ctx context.Context, meetingID string) ([]models.TranscriptSegment, error)
	// EditSegmentText updates one segment's text and snapshots a new
	// revision so the audit trail reflects the edit.
	EditSegmentText(ctx context.Context, segmentID, text string) (*models.TranscriptRevision, error)
	// Snapshot persists an immutable, ordered copy of the current
	// transcript under the next revision number. An empty transcript
	// snapshots as an empty segment list, not an error.
	Snapshot(ctx context.Context, meetingID string) (*models.TranscriptRevision, error)
	ListRevisions(ctx context.Context, meetingID string) ([]models.TranscriptRevision, error)

	UpsertSpeakerLabel(ctx context.Context, meetingID, speakerKey, displayName string) error
	ListSpeakerLabels(ctx context.Context, meetingID string) ([]models.SpeakerLabel, error)
}

type snapshotSegment struct {
	ID         string `json:"id"`
	StartMS    int    `json:"start_ms"`
	EndMS      int    `json:"end_ms"`
	SpeakerKey string `json:"speaker_key"`
	Text       string `json:"text"`
}

type transcriptService struct {
	segments  pgrepo.TranscriptSegmentRepo
	revisions pgrepo.RevisionRepo
	speakers  pgrepo.SpeakerLabelRepo
}

func NewTranscriptService(segments pgrepo.TranscriptSegmentRepo, revisions pgrepo.RevisionRepo, speakers pgrepo.SpeakerLabelRepo) TranscriptService {
	return &transcriptService{segments: segments, revisions: revisions, speakers: speakers}
}

func (s *transcriptService) ListSegments(ctx context.Context, meetingID string) ([]models.TranscriptSegment, error) {
	const op = "TranscriptService.ListSegments"

	if meetingID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "meeting id is required", nil)
	}
	rows, err := s.segments.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list segments", err)
	}
	return rows, nil
}

func (s *transcriptService) EditSegmentText(ctx context.Context, segmentID, text string) (*models.TranscriptRevision, error) {
	const op = "TranscriptService.EditSegmentText"

	if segmentID == "" || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "segment id and text are required", nil)
	}

	seg, err := s.segments.GetByID(ctx, segmentID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "segment not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load segment", err)
	}
	if err := s.segments.UpdateText(ctx, segmentID, text); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update segment", err)
	}
	return s.Snapshot(ctx, seg.MeetingID)
}

func (s *transcriptService) Snapshot(ctx context.Context, meetingID string) (*models.TranscriptRevision, error) {
	const op = "TranscriptService.Snapshot"

	if meetingID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "meeting id is required", nil)
	}

	rows, err := s.segments.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read transcript", err)
	}

	snapshot := make([]snapshotSegment, 0, len(rows))
	for _, seg := range rows {
		snapshot = append(snapshot, snapshotSegment{
			ID:         seg.ID,
			StartMS:    seg.StartMS,
			EndMS:      seg.EndMS,
			SpeakerKey: seg.SpeakerKey,
			Text:       seg.Text,
		})
	}
	payload, err := json.Marshal(map[string]any{"segments": snapshot})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode snapshot", err)
	}

	maxNo, err := s.revisions.MaxRevisionNo(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read revisions", err)
	}

	rev := &models.TranscriptRevision{
		ID:         uuid.NewString(),
		MeetingID:  meetingID,
		RevisionNo: maxNo + 1,
		Snapshot:   datatypes.JSON(payload),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.revisions.Create(ctx, rev); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create revision", err)
	}
	return rev, nil
}

func (s *transcriptService) ListRevisions(ctx context.Context, meetingID string) ([]models.TranscriptRevision, error) {
	const op = "TranscriptService.ListRevisions"

	rows, err := s.revisions.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list revisions", err)
	}
	return rows, nil
}

func (s *transcriptService) UpsertSpeakerLabel(ctx context.Context, meetingID, speakerKey, displayName string) error {
	const op = "TranscriptService.UpsertSpeakerLabel"

	if meetingID == "" || speakerKey == "" || displayName == "" {
		return utils.E(utils.CodeInvalidArgument, op, "meeting id, speaker key, and display name are required", nil)
	}
	err := s.speakers.Upsert(ctx, &models.SpeakerLabel{
		ID:          uuid.NewString(),
		MeetingID:   meetingID,
		SpeakerKey:  speakerKey,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert speaker label", err)
	}
	return nil
}

func (s *transcriptService) ListSpeakerLabels(ctx context.Context, meetingID string) ([]models.SpeakerLabel, error) {
	const op = "TranscriptService.ListSpeakerLabels"

	rows, err := s.speakers.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list speaker labels", err)
	}
	return rows, nil
}
