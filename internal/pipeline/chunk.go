package pipeline

import (
	"fmt"
	"strings"

	"github.com/meetscribe/meetscribe/internal/models"
)

// BuildChunks renders ordered transcript segments as "[start-end] text"
// lines and groups them into chunks, starting a new chunk whenever adding a
// line would push the current one past charBudget.
func BuildChunks(segments []models.TranscriptSegment, charBudget int) []string {
	if charBudget <= 0 {
		charBudget = 4000
	}

	var (
		chunks  []string
		current []string
		curLen  int
	)
	for _, seg := range segments {
		line := strings.TrimSpace(fmt.Sprintf("[%d-%d] %s", seg.StartMS, seg.EndMS, seg.Text))
		if curLen+len(line) > charBudget && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			curLen = 0
		}
		current = append(current, line)
		curLen += len(line)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
