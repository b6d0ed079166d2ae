package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/utils"
)

type QAHandler struct {
	index services.IndexService
	topN  int
}

func NewQAHandler(index services.IndexService, topN int) *QAHandler {
	return &QAHandler{index: index, topN: topN}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *QAHandler) Ask(c *gin.Context) {
	const op = "QAHandler.Ask"

	if _, ok := requireUserID(c); !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid body", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "question must not be empty", nil))
		return
	}

	answer, err := h.index.Answer(c.Request.Context(), c.Param("meeting_id"), req.Question, h.topN)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}
