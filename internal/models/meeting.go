package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meeting pipeline statuses. Transitions are owned by the stage controller
// (internal/pipeline); nothing else writes Status.
const (
	StatusUploaded      = "uploaded"
	StatusPreprocessing = "preprocessing"
	StatusVAD           = "vad"
	StatusTranscribing  = "transcribing"
	StatusSummarizing   = "summarizing"
	StatusDone          = "done"
	StatusFailed        = "failed"
)

type Meeting struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;type:varchar(255)" json:"title"`
	MeetingDate *time.Time     `gorm:"column:meeting_date;type:date" json:"meeting_date,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	Folder      string         `gorm:"column:folder;type:varchar(255)" json:"folder,omitempty"`

	Status   string         `gorm:"column:status;type:varchar(50);default:uploaded" json:"status"`
	Progress datatypes.JSON `gorm:"column:progress;type:jsonb" json:"progress"`

	// Usage counters, monotonically non-decreasing. Each job commits its
	// own delta via SQL expressions, never a cached total.
	AudioTokens  int64   `gorm:"column:audio_tokens;default:0" json:"audio_tokens"`
	TextTokens   int64   `gorm:"column:text_tokens;default:0" json:"text_tokens"`
	OutputTokens int64   `gorm:"column:output_tokens;default:0" json:"output_tokens"`
	CostUSD      float64 `gorm:"column:cost_usd;default:0" json:"cost_usd"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Meeting) TableName() string { return "meetings" }
