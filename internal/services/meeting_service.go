package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/pipeline"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// MeetingService owns the meeting record: creation, reads and, as the stage
// controller, every write to status/progress and the usage counters.
type MeetingService interface {
	Create(ctx context.Context, title string, meetingDate *time.Time, tags []string, folder string) (*models.Meeting, error)
	Get(ctx context.Context, id string) (*models.Meeting, error)
	List(ctx context.Context, folder string, limit int) ([]models.Meeting, error)
	Delete(ctx context.Context, id string) error
	Summaries(ctx context.Context, meetingID string) ([]models.Summary, error)

	// Advance moves the meeting to the next pipeline status. Transitions
	// outside the stage graph are rejected; none are reversible.
	Advance(ctx context.Context, meetingID, status string, meta map[string]any) error
	// Fail records terminal failure with a structured reason. Recovery is
	// an explicit re-invocation of the failed stage, never automatic.
	Fail(ctx context.Context, meetingID, stage string, code utils.Code, reason string) error
	// AccrueUsage commits one job's token/cost delta onto the running totals.
	AccrueUsage(ctx context.Context, meetingID string, audioTokens, textTokens, outputTokens int64, costUSD float64) error
}

type meetingService struct {
	meetings  pgrepo.MeetingRepo
	summaries pgrepo.SummaryRepo
	progress  ProgressPublisher
}

func NewMeetingService(meetings pgrepo.MeetingRepo, summaries pgrepo.SummaryRepo, progress ProgressPublisher) MeetingService {
	if progress == nil {
		progress = NoopProgressPublisher{}
	}
	return &meetingService{meetings: meetings, summaries: summaries, progress: progress}
}

func (s *meetingService) Create(ctx context.Context, title string, meetingDate *time.Time, tags []string, folder string) (*models.Meeting, error) {
	const op = "MeetingService.Create"

	if title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title is required", nil)
	}

	row := &models.Meeting{
		ID:          uuid.NewString(),
		Title:       title,
		MeetingDate: meetingDate,
		Tags:        tags,
		Folder:      folder,
		Status:      models.StatusUploaded,
		Progress:    datatypes.JSON([]byte(`{}`)),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.meetings.Create(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create meeting", err)
	}
	return row, nil
}

func (s *meetingService) Get(ctx context.Context, id string) (*models.Meeting, error) {
	const op = "MeetingService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "meeting id is required", nil)
	}
	row, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "meeting not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get meeting", err)
	}
	return row, nil
}

func (s *meetingService) List(ctx context.Context, folder string, limit int) ([]models.Meeting, error) {
	const op = "MeetingService.List"

	rows, err := s.meetings.List(ctx, folder, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list meetings", err)
	}
	return rows, nil
}

func (s *meetingService) Delete(ctx context.Context, id string) error {
	const op = "MeetingService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "meeting id is required", nil)
	}
	if err := s.meetings.SoftDelete(ctx, id); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete meeting", err)
	}
	return nil
}

func (s *meetingService) Summaries(ctx context.Context, meetingID string) ([]models.Summary, error) {
	const op = "MeetingService.Summaries"

	rows, err := s.summaries.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list summaries", err)
	}
	return rows, nil
}

func (s *meetingService) Advance(ctx context.Context, meetingID, status string, meta map[string]any) error {
	const op = "MeetingService.Advance"

	m, err := s.Get(ctx, meetingID)
	if err != nil {
		return err
	}
	if !pipeline.CanTransition(m.Status, status) {
		return utils.E(utils.CodeConflict, op,
			fmt.Sprintf("cannot transition from %s to %s", m.Status, status), nil)
	}

	payload := map[string]any{
		"stage":   status,
		"percent": pipeline.StagePercent[status],
	}
	for k, v := range meta {
		payload[k] = v
	}
	return s.writeProgress(ctx, op, meetingID, status, payload)
}

func (s *meetingService) Fail(ctx context.Context, meetingID, stage string, code utils.Code, reason string) error {
	const op = "MeetingService.Fail"

	m, err := s.Get(ctx, meetingID)
	if err != nil {
		return err
	}
	if !pipeline.CanTransition(m.Status, models.StatusFailed) {
		return utils.E(utils.CodeConflict, op,
			fmt.Sprintf("cannot fail from status %s", m.Status), nil)
	}

	payload := map[string]any{
		"stage":   stage,
		"percent": 0,
		"code":    string(code),
		"error":   reason,
	}
	return s.writeProgress(ctx, op, meetingID, models.StatusFailed, payload)
}

func (s *meetingService) writeProgress(ctx context.Context, op, meetingID, status string, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode progress", err)
	}
	if err := s.meetings.SetStatusProgress(ctx, meetingID, status, datatypes.JSON(b)); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update status", err)
	}
	payload["status"] = status
	s.progress.Publish(ctx, meetingID, payload)
	return nil
}

func (s *meetingService) AccrueUsage(ctx context.Context, meetingID string, audioTokens, textTokens, outputTokens int64, costUSD float64) error {
	const op = "MeetingService.AccrueUsage"

	if audioTokens < 0 || textTokens < 0 || outputTokens < 0 || costUSD < 0 {
		return utils.E(utils.CodeInvalidArgument, op, "usage deltas must be non-negative", nil)
	}
	if audioTokens == 0 && textTokens == 0 && outputTokens == 0 && costUSD == 0 {
		return nil
	}
	if err := s.meetings.AccrueUsage(ctx, meetingID, audioTokens, textTokens, outputTokens, costUSD); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to accrue usage", err)
	}
	return nil
}
