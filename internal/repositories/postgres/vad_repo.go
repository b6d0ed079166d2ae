package postgres

import (
	"context"
	"errors"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
	"gorm.io/gorm"
)

type VadSegmentRepo interface {
	// ReplaceForMeeting swaps in a fresh segment set atomically; vad re-runs
	// are idempotent because prior rows never survive.
	ReplaceForMeeting(ctx context.Context, meetingID string, rows []models.VadSegment) error
	GetByID(ctx context.Context, id string) (*models.VadSegment, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]models.VadSegment, error)
	SetClipKey(ctx context.Context, id, clipKey string) error
}

type vadSegmentRepo struct {
	db *gorm.DB
}

func NewVadSegmentRepo(db *gorm.DB) VadSegmentRepo {
	return &vadSegmentRepo{db: db}
}

func (r *vadSegmentRepo) ReplaceForMeeting(ctx context.Context, meetingID string, rows []models.VadSegment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.VadSegment{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *vadSegmentRepo) GetByID(ctx context.Context, id string) (*models.VadSegment, error) {
	var row models.VadSegment
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *vadSegmentRepo) ListByMeeting(ctx context.Context, meetingID string) ([]models.VadSegment, error) {
	var rows []models.VadSegment
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("start_ms ASC").
		Find(&rows).Error
	return rows, err
}

func (r *vadSegmentRepo) SetClipKey(ctx context.Context, id, clipKey string) error {
	return r.db.WithContext(ctx).Model(&models.VadSegment{}).
		Where("id = ?", id).
		Update("clip_object_key", clipKey).Error
}
