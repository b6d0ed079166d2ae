package pipeline

import (
	"strings"
	"testing"

	"github.com/meetscribe/meetscribe/internal/models"
)

func seg(start, end int, text string) models.TranscriptSegment {
	return models.TranscriptSegment{StartMS: start, EndMS: end, Text: text}
}

func TestBuildChunksLineFormat(t *testing.T) {
	chunks := BuildChunks([]models.TranscriptSegment{
		seg(0, 1500, "hello there"),
		seg(1500, 3000, "general remarks"),
	}, 4000)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	want := "[0-1500] hello there\n[1500-3000] general remarks"
	if chunks[0] != want {
		t.Errorf("chunk = %q, want %q", chunks[0], want)
	}
}

func TestBuildChunksSplitsOnBudget(t *testing.T) {
	long := strings.Repeat("x", 30)
	var segs []models.TranscriptSegment
	for i := 0; i < 10; i++ {
		segs = append(segs, seg(i*1000, (i+1)*1000, long))
	}

	// each line is ~40 chars; a 100-char budget forces several chunks
	chunks := BuildChunks(segs, 100)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}

	// no line is lost or reordered across the split
	joined := strings.Join(chunks, "\n")
	if got := strings.Count(joined, "\n") + 1; got != 10 {
		t.Errorf("total lines = %d, want 10", got)
	}
	if !strings.HasPrefix(chunks[0], "[0-1000]") {
		t.Errorf("first chunk starts with %q", chunks[0][:10])
	}
}

func TestBuildChunksOversizedSingleLine(t *testing.T) {
	// a single line over budget still lands in its own chunk
	chunks := BuildChunks([]models.TranscriptSegment{
		seg(0, 1000, strings.Repeat("y", 200)),
		seg(1000, 2000, "short"),
	}, 100)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
}

func TestBuildChunksEmpty(t *testing.T) {
	if got := BuildChunks(nil, 4000); len(got) != 0 {
		t.Errorf("got %d chunks for empty transcript, want 0", len(got))
	}
}
