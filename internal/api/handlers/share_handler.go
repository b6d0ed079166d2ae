package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetscribe/meetscribe/internal/services"
)

type ShareHandler struct {
	shares   services.ShareService
	meetings services.MeetingService
}

func NewShareHandler(shares services.ShareService, meetings services.MeetingService) *ShareHandler {
	return &ShareHandler{shares: shares, meetings: meetings}
}

func (h *ShareHandler) Create(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	link, token, err := h.shares.Create(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	// token is shown once; only its hash survives
	c.JSON(http.StatusCreated, gin.H{"link_id": link.ID, "token": token})
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if err := h.shares.Revoke(c.Request.Context(), c.Param("link_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

// View is the unauthenticated read: a valid token resolves to the shared
// meeting and its summaries.
func (h *ShareHandler) View(c *gin.Context) {
	link, err := h.shares.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := h.meetings.Get(c.Request.Context(), link.MeetingID)
	if err != nil {
		writeError(c, err)
		return
	}
	summaries, err := h.meetings.Summaries(c.Request.Context(), link.MeetingID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting":   m,
		"summaries": summaries,
	})
}
