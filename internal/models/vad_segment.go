package models

import "time"

// VadSegment is one detected speech region. Rows are written in bulk once
// per meeting and are immutable afterwards (clip key excepted, set while
// clips are extracted).
type VadSegment struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	StartMS       int `gorm:"column:start_ms" json:"start_ms"`
	EndMS         int `gorm:"column:end_ms" json:"end_ms"`
	PaddedStartMS int `gorm:"column:padded_start_ms" json:"padded_start_ms"`
	PaddedEndMS   int `gorm:"column:padded_end_ms" json:"padded_end_ms"`

	EnergyScore   *float64 `gorm:"column:energy_score" json:"energy_score,omitempty"`
	ClipObjectKey string   `gorm:"column:clip_object_key;type:varchar(512)" json:"clip_object_key,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (VadSegment) TableName() string { return "vad_segments" }
