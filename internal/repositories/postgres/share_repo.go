package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
	"gorm.io/gorm"
)

type ShareLinkRepo interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByID(ctx context.Context, id string) (*models.ShareLink, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

type shareLinkRepo struct {
	db *gorm.DB
}

func NewShareLinkRepo(db *gorm.DB) ShareLinkRepo {
	return &shareLinkRepo{db: db}
}

func (r *shareLinkRepo) Create(ctx context.Context, link *models.ShareLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *shareLinkRepo) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	var row models.ShareLink
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *shareLinkRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

type SpeakerLabelRepo interface {
	Upsert(ctx context.Context, label *models.SpeakerLabel) error
	ListByMeeting(ctx context.Context, meetingID string) ([]models.SpeakerLabel, error)
}

type speakerLabelRepo struct {
	db *gorm.DB
}

func NewSpeakerLabelRepo(db *gorm.DB) SpeakerLabelRepo {
	return &speakerLabelRepo{db: db}
}

func (r *speakerLabelRepo) Upsert(ctx context.Context, label *models.SpeakerLabel) error {
	res := r.db.WithContext(ctx).Model(&models.SpeakerLabel{}).
		Where("meeting_id = ? AND speaker_key = ?", label.MeetingID, label.SpeakerKey).
		Update("display_name", label.DisplayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(label).Error
}

func (r *speakerLabelRepo) ListByMeeting(ctx context.Context, meetingID string) ([]models.SpeakerLabel, error) {
	var rows []models.SpeakerLabel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("speaker_key ASC").
		Find(&rows).Error
	return rows, err
}
