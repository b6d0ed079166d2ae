package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/queue"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// PipelineService starts and restarts pipeline runs. Stage-to-stage
// progression inside a run is driven by the workers themselves.
type PipelineService interface {
	// StartIngest kicks off processing for a freshly uploaded meeting.
	StartIngest(ctx context.Context, meetingID string) (string, error)
	// Reprocess re-runs a failed meeting from the stage recorded at
	// failure time: a vad failure restarts at vad, everything else
	// restarts from ingest.
	Reprocess(ctx context.Context, meetingID string) (string, error)
}

type pipelineService struct {
	meetings  pgrepo.MeetingRepo
	media     pgrepo.MediaAssetRepo
	scheduler queue.Scheduler
}

func NewPipelineService(meetings pgrepo.MeetingRepo, media pgrepo.MediaAssetRepo, scheduler queue.Scheduler) PipelineService {
	return &pipelineService{meetings: meetings, media: media, scheduler: scheduler}
}

func (s *pipelineService) StartIngest(ctx context.Context, meetingID string) (string, error) {
	const op = "PipelineService.StartIngest"

	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return "", utils.E(utils.CodeNotFound, op, "meeting not found", err)
	}
	if m.Status != models.StatusUploaded {
		return "", utils.E(utils.CodeConflict, op, "meeting already processing", nil)
	}

	asset, err := s.media.GetByMeeting(ctx, meetingID)
	if err != nil {
		return "", utils.E(utils.CodeMissingAsset, op, "no uploaded audio for meeting", err)
	}

	jobID, err := s.scheduler.Enqueue(ctx, queue.TaskIngest, map[string]string{
		"meeting_id":   meetingID,
		"original_key": asset.OriginalObjectKey,
	})
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to enqueue ingest", err)
	}
	return jobID, nil
}

func (s *pipelineService) Reprocess(ctx context.Context, meetingID string) (string, error) {
	const op = "PipelineService.Reprocess"

	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return "", utils.E(utils.CodeNotFound, op, "meeting not found", err)
	}
	if m.Status != models.StatusFailed {
		return "", utils.E(utils.CodeConflict, op, "only failed meetings can be reprocessed", nil)
	}

	var progress struct {
		Stage string `json:"stage"`
	}
	_ = json.Unmarshal(m.Progress, &progress)

	// A vad failure keeps its normalized audio, so the run can resume there.
	// Anything else starts over from the original upload.
	if progress.Stage == models.StatusVAD {
		asset, err := s.media.GetByMeeting(ctx, meetingID)
		if err == nil && asset.NormalizedObjectKey != "" {
			if err := s.resetStatus(ctx, op, meetingID, models.StatusPreprocessing); err != nil {
				return "", err
			}
			jobID, err := s.scheduler.Enqueue(ctx, queue.TaskVad, map[string]string{"meeting_id": meetingID})
			if err != nil {
				return "", utils.E(utils.CodeInternal, op, "failed to enqueue vad", err)
			}
			return jobID, nil
		}
	}

	if err := s.resetStatus(ctx, op, meetingID, models.StatusUploaded); err != nil {
		return "", err
	}
	return s.StartIngest(ctx, meetingID)
}

func (s *pipelineService) resetStatus(ctx context.Context, op, meetingID, status string) error {
	if err := s.meetings.SetStatusProgress(ctx, meetingID, status, datatypes.JSON([]byte(`{}`))); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to reset status", err)
	}
	return nil
}
