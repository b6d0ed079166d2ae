package postgres

import (
	"context"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingRepo interface {
	InsertBatch(ctx context.Context, rows []models.SegmentEmbedding) error
	// EmbeddedSegmentIDs reports which of the meeting's segments already
	// carry a vector, so re-runs only embed the new ones.
	EmbeddedSegmentIDs(ctx context.Context, meetingID string) (map[string]bool, error)
	// NearestSegments ranks the meeting's segments by ascending cosine
	// distance to the query vector.
	NearestSegments(ctx context.Context, meetingID string, query []float32, limit int) ([]models.TranscriptSegment, error)
}

type embeddingRepo struct {
	db *gorm.DB
}

func NewEmbeddingRepo(db *gorm.DB) EmbeddingRepo {
	return &embeddingRepo{db: db}
}

func (r *embeddingRepo) InsertBatch(ctx context.Context, rows []models.SegmentEmbedding) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *embeddingRepo) EmbeddedSegmentIDs(ctx context.Context, meetingID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.SegmentEmbedding{}).
		Where("meeting_id = ?", meetingID).
		Pluck("segment_id", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *embeddingRepo) NearestSegments(ctx context.Context, meetingID string, query []float32, limit int) ([]models.TranscriptSegment, error) {
	if limit <= 0 {
		limit = 8
	}

	var rows []models.TranscriptSegment
	err := r.db.WithContext(ctx).
		Table("transcript_segments").
		Select("transcript_segments.*").
		Joins("JOIN segment_embeddings ON segment_embeddings.segment_id = transcript_segments.id").
		Where("transcript_segments.meeting_id = ?", meetingID).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "segment_embeddings.embedding <=> ?",
			Vars:               []any{pgvector.NewVector(query)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
