package postgres

import (
	"context"
	"errors"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MeetingRepo interface {
	Create(ctx context.Context, m *models.Meeting) error
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	List(ctx context.Context, folder string, limit int) ([]models.Meeting, error)
	SetStatusProgress(ctx context.Context, id, status string, progress datatypes.JSON) error
	AccrueUsage(ctx context.Context, id string, audioTokens, textTokens, outputTokens int64, costUSD float64) error
	SoftDelete(ctx context.Context, id string) error
}

type meetingRepo struct {
	db *gorm.DB
}

func NewMeetingRepo(db *gorm.DB) MeetingRepo {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) Create(ctx context.Context, m *models.Meeting) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *meetingRepo) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	var row models.Meeting
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *meetingRepo) List(ctx context.Context, folder string, limit int) ([]models.Meeting, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if folder != "" {
		q = q.Where("folder = ?", folder)
	}

	var rows []models.Meeting
	err := q.Find(&rows).Error
	return rows, err
}

func (r *meetingRepo) SetStatusProgress(ctx context.Context, id, status string, progress datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "progress": progress})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// AccrueUsage commits a delta with SQL expressions so concurrent jobs never
// overwrite each other's totals.
func (r *meetingRepo) AccrueUsage(ctx context.Context, id string, audioTokens, textTokens, outputTokens int64, costUSD float64) error {
	return r.db.WithContext(ctx).Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"audio_tokens":  gorm.Expr("audio_tokens + ?", audioTokens),
			"text_tokens":   gorm.Expr("text_tokens + ?", textTokens),
			"output_tokens": gorm.Expr("output_tokens + ?", outputTokens),
			"cost_usd":      gorm.Expr("cost_usd + ?", costUSD),
		}).Error
}

func (r *meetingRepo) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Meeting{}).Error
}
