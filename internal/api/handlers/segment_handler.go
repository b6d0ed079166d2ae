package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/utils"
)

type SegmentHandler struct {
	transcripts services.TranscriptService
}

func NewSegmentHandler(transcripts services.TranscriptService) *SegmentHandler {
	return &SegmentHandler{transcripts: transcripts}
}

func (h *SegmentHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.transcripts.ListSegments(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": rows})
}

type editSegmentRequest struct {
	Text string `json:"text"`
}

// EditText updates one segment's text; every edit snapshots a new revision.
func (h *SegmentHandler) EditText(c *gin.Context) {
	const op = "SegmentHandler.EditText"

	if _, ok := requireUserID(c); !ok {
		return
	}

	var req editSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid body", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "text must not be empty", nil))
		return
	}

	rev, err := h.transcripts.EditSegmentText(c.Request.Context(), c.Param("segment_id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": rev})
}

func (h *SegmentHandler) ListRevisions(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.transcripts.ListRevisions(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revisions": rows})
}

type speakerLabelRequest struct {
	SpeakerKey  string `json:"speaker_key"`
	DisplayName string `json:"display_name"`
}

func (h *SegmentHandler) UpsertSpeakerLabel(c *gin.Context) {
	const op = "SegmentHandler.UpsertSpeakerLabel"

	if _, ok := requireUserID(c); !ok {
		return
	}

	var req speakerLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid body", err))
		return
	}

	err := h.transcripts.UpsertSpeakerLabel(c.Request.Context(), c.Param("meeting_id"), req.SpeakerKey, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *SegmentHandler) ListSpeakerLabels(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.transcripts.ListSpeakerLabels(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"speakers": rows})
}
