package models

import "time"

type MediaAsset struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	OriginalObjectKey   string `gorm:"column:original_object_key;type:varchar(512)" json:"original_object_key"`
	NormalizedObjectKey string `gorm:"column:normalized_object_key;type:varchar(512)" json:"normalized_object_key,omitempty"`
	PlayableObjectKey   string `gorm:"column:playable_object_key;type:varchar(512)" json:"playable_object_key,omitempty"`

	OriginalFilename    string `gorm:"column:original_filename;type:varchar(255)" json:"original_filename,omitempty"`
	OriginalContentType string `gorm:"column:original_content_type;type:varchar(255)" json:"original_content_type,omitempty"`
	DurationMS          int    `gorm:"column:duration_ms" json:"duration_ms,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (MediaAsset) TableName() string { return "media_assets" }
