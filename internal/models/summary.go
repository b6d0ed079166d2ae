package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SummaryKindWork     = "work"
	SummaryKindTimeline = "timeline"
)

type Summary struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	Kind    string         `gorm:"column:kind;type:varchar(50)" json:"kind"`
	Content datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Summary) TableName() string { return "summaries" }
