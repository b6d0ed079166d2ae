package postgres

import (
	"context"

	"github.com/meetscribe/meetscribe/internal/models"
	"gorm.io/gorm"
)

type SummaryRepo interface {
	// ReplaceForMeeting drops prior summaries and writes the new set in one
	// transaction; summarize re-runs overwrite, they never stack.
	ReplaceForMeeting(ctx context.Context, meetingID string, rows []models.Summary) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.Summary, error)
}

type summaryRepo struct {
	db *gorm.DB
}

func NewSummaryRepo(db *gorm.DB) SummaryRepo {
	return &summaryRepo{db: db}
}

func (r *summaryRepo) ReplaceForMeeting(ctx context.Context, meetingID string, rows []models.Summary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.Summary{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *summaryRepo) ListByMeeting(ctx context.Context, meetingID string) ([]models.Summary, error) {
	var rows []models.Summary
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("kind ASC").
		Find(&rows).Error
	return rows, err
}
