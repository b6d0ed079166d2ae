package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/providers/embed"
	"github.com/meetscribe/meetscribe/internal/providers/llm"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// IndexService is the indexer: one retrieval vector per transcript segment,
// plus the nearest-neighbor question answering built on top of it.
type IndexService interface {
	// EmbedNewSegments embeds segments that do not yet carry a vector and
	// returns how many were indexed. Existing embeddings are never
	// recomputed, so re-runs after partial appends stay cheap.
	EmbedNewSegments(ctx context.Context, meetingID string) (int, error)
	// Answer embeds the question, takes the topN segments by ascending
	// cosine distance and asks the LLM for a cited answer.
	Answer(ctx context.Context, meetingID, question string, topN int) (map[string]any, error)
}

type indexService struct {
	segments   pgrepo.TranscriptSegmentRepo
	embeddings pgrepo.EmbeddingRepo
	embedder   embed.Provider
	llm        llm.Provider
}

func NewIndexService(segments pgrepo.TranscriptSegmentRepo, embeddings pgrepo.EmbeddingRepo, embedder embed.Provider, llmProvider llm.Provider) IndexService {
	return &indexService{segments: segments, embeddings: embeddings, embedder: embedder, llm: llmProvider}
}

func (s *indexService) EmbedNewSegments(ctx context.Context, meetingID string) (int, error) {
	const op = "IndexService.EmbedNewSegments"

	if meetingID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "meeting id is required", nil)
	}

	segs, err := s.segments.ListByMeeting(ctx, meetingID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to list segments", err)
	}
	done, err := s.embeddings.EmbeddedSegmentIDs(ctx, meetingID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to read embeddings", err)
	}

	var todo []models.TranscriptSegment
	for _, seg := range segs {
		if !done[seg.ID] {
			todo = append(todo, seg)
		}
	}
	if len(todo) == 0 {
		return 0, nil
	}

	texts := make([]string, len(todo))
	for i, seg := range todo {
		texts[i] = seg.Text
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, utils.E(utils.CodeProvider, op, "embedding provider call failed", err)
	}

	rows := make([]models.SegmentEmbedding, len(todo))
	for i, seg := range todo {
		rows[i] = models.SegmentEmbedding{
			ID:        uuid.NewString(),
			MeetingID: meetingID,
			SegmentID: seg.ID,
			Embedding: pgvector.NewVector(vectors[i]),
			CreatedAt: time.Now().UTC(),
		}
	}
	if err := s.embeddings.InsertBatch(ctx, rows); err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to store embeddings", err)
	}
	return len(rows), nil
}

func (s *indexService) Answer(ctx context.Context, meetingID, question string, topN int) (map[string]any, error) {
	const op = "IndexService.Answer"

	if meetingID == "" || question == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "meeting id and question are required", nil)
	}
	if topN <= 0 {
		topN = 8
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, utils.E(utils.CodeProvider, op, "embedding provider call failed", err)
	}

	rows, err := s.embeddings.NearestSegments(ctx, meetingID, vectors[0], topN)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search segments", err)
	}
	if len(rows) == 0 {
		return map[string]any{"answer": "No relevant context found.", "citations": []any{}}, nil
	}

	lines := make([]string, len(rows))
	for i, seg := range rows {
		lines[i] = fmt.Sprintf("[%s] %d-%d: %s", seg.ID, seg.StartMS, seg.EndMS, seg.Text)
	}
	answer, err := s.llm.Answer(ctx, question, strings.Join(lines, "\n"))
	if err != nil {
		return nil, utils.E(utils.CodeProvider, op, "answer provider call failed", err)
	}
	return answer, nil
}
