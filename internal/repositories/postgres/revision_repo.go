package postgres

import (
	"context"

	"github.com/meetscribe/meetscribe/internal/models"
	"gorm.io/gorm"
)

type RevisionRepo interface {
	MaxRevisionNo(ctx context.Context, meetingID string) (int, error)
	Create(ctx context.Context, rev *models.TranscriptRevision) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptRevision, error)
}

type revisionRepo struct {
	db *gorm.DB
}

func NewRevisionRepo(db *gorm.DB) RevisionRepo {
	return &revisionRepo{db: db}
}

func (r *revisionRepo) MaxRevisionNo(ctx context.Context, meetingID string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&models.TranscriptRevision{}).
		Where("meeting_id = ?", meetingID).
		Select("MAX(revision_no)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *revisionRepo) Create(ctx context.Context, rev *models.TranscriptRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *revisionRepo) ListByMeeting(ctx context.Context, meetingID string) ([]models.TranscriptRevision, error) {
	var rows []models.TranscriptRevision
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("revision_no DESC").
		Find(&rows).Error
	return rows, err
}
