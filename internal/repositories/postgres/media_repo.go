package postgres

import (
	"context"
	"errors"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
	"gorm.io/gorm"
)

type MediaAssetRepo interface {
	Create(ctx context.Context, a *models.MediaAsset) error
	GetByMeeting(ctx context.Context, meetingID string) (*models.MediaAsset, error)
	Update(ctx context.Context, a *models.MediaAsset) error
}

type mediaAssetRepo struct {
	db *gorm.DB
}

func NewMediaAssetRepo(db *gorm.DB) MediaAssetRepo {
	return &mediaAssetRepo{db: db}
}

func (r *mediaAssetRepo) Create(ctx context.Context, a *models.MediaAsset) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *mediaAssetRepo) GetByMeeting(ctx context.Context, meetingID string) (*models.MediaAsset, error) {
	var row models.MediaAsset
	err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *mediaAssetRepo) Update(ctx context.Context, a *models.MediaAsset) error {
	return r.db.WithContext(ctx).Save(a).Error
}
