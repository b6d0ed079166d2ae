package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// TranscriptSegment timestamps are in the meeting's absolute timeline.
// Insertion order is provider order within a window; readers must not assume
// time order until a revision snapshot exists.
type TranscriptSegment struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	StartMS    int      `gorm:"column:start_ms" json:"start_ms"`
	EndMS      int      `gorm:"column:end_ms" json:"end_ms"`
	SpeakerKey string   `gorm:"column:speaker_key;type:varchar(50);default:spk_1" json:"speaker_key"`
	Text       string   `gorm:"column:text;type:text" json:"text"`
	Confidence *float64 `gorm:"column:confidence" json:"confidence,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (TranscriptSegment) TableName() string { return "transcript_segments" }

// TranscriptRevision is an append-only snapshot of the full ordered
// transcript. RevisionNo starts at 1 and has no gaps per meeting.
type TranscriptRevision struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`

	RevisionNo int            `gorm:"column:revision_no" json:"revision_no"`
	Snapshot   datatypes.JSON `gorm:"column:snapshot;type:jsonb" json:"snapshot"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (TranscriptRevision) TableName() string { return "transcript_revisions" }

type SegmentEmbedding struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MeetingID string `gorm:"column:meeting_id;type:uuid;index" json:"meeting_id"`
	SegmentID string `gorm:"column:segment_id;type:uuid;uniqueIndex" json:"segment_id"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (SegmentEmbedding) TableName() string { return "segment_embeddings" }
