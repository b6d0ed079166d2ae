package postgres

import (
	"context"
	"errors"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
	"gorm.io/gorm"
)

type TranscriptSegmentRepo interface {
	InsertBatch(ctx context.Context, rows []models.TranscriptSegment) error
	GetByID(ctx context.Context, id string) (*models.TranscriptSegment, error)
	// ListByMeeting returns segments ordered by start_ms ascending.
	ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptSegment, error)
	// ListContained returns segments whose absolute range lies fully inside
	// [startMS, endMS]. Used for the window resumption check.
	ListContained(ctx context.Context, meetingID string, startMS, endMS int) ([]models.TranscriptSegment, error)
	UpdateText(ctx context.Context, id, text string) error
}

type transcriptSegmentRepo struct {
	db *gorm.DB
}

func NewTranscriptSegmentRepo(db *gorm.DB) TranscriptSegmentRepo {
	return &transcriptSegmentRepo{db: db}
}

func (r *transcriptSegmentRepo) InsertBatch(ctx context.Context, rows []models.TranscriptSegment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *transcriptSegmentRepo) GetByID(ctx context.Context, id string) (*models.TranscriptSegment, error) {
	var row models.TranscriptSegment
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *transcriptSegmentRepo) ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptSegment, error) {
	var rows []models.TranscriptSegment
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("start_ms ASC").
		Find(&rows).Error
	return rows, err
}

func (r *transcriptSegmentRepo) ListContained(ctx context.Context, meetingID string, startMS, endMS int) ([]models.TranscriptSegment, error) {
	var rows []models.TranscriptSegment
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND start_ms >= ? AND end_ms <= ?", meetingID, startMS, endMS).
		Find(&rows).Error
	return rows, err
}

func (r *transcriptSegmentRepo) UpdateText(ctx context.Context, id, text string) error {
	res := r.db.WithContext(ctx).Model(&models.TranscriptSegment{}).
		Where("id = ?", id).
		Update("text", text)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
