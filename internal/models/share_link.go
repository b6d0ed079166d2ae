package models

import "time"

// ShareLink grants read access to a meeting via an opaque token
// "<link_id>.<secret>". Only the bcrypt hash of the secret is stored.
type ShareLink struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	TokenHash string `gorm:"column:token_hash;type:varchar(128)" json:"-"`

	CreatedAt time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at;type:timestamptz" json:"revoked_at,omitempty"`
}

func (ShareLink) TableName() string { return "share_links" }

type SpeakerLabel struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	SpeakerKey  string `gorm:"column:speaker_key;type:varchar(50)" json:"speaker_key"`
	DisplayName string `gorm:"column:display_name;type:varchar(100)" json:"display_name"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (SpeakerLabel) TableName() string { return "speaker_labels" }
