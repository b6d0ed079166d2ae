package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meetscribe/meetscribe/internal/cache"
	"github.com/meetscribe/meetscribe/internal/models"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/storage"
	"github.com/meetscribe/meetscribe/internal/utils"
)

const meetingCacheTTL = 10 * time.Second

type MeetingHandler struct {
	meetings services.MeetingService
	pipeline services.PipelineService
	media    pgrepo.MediaAssetRepo
	store    storage.ObjectStore
	cache    cache.Cache
}

func NewMeetingHandler(meetings services.MeetingService, pipeline services.PipelineService, media pgrepo.MediaAssetRepo, store storage.ObjectStore, c cache.Cache) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, pipeline: pipeline, media: media, store: store, cache: c}
}

func meetingCacheKey(id string) string { return "meeting:" + id }

// Upload accepts a multipart form with the audio file plus meeting
// metadata, stores the original and kicks off the pipeline.
func (h *MeetingHandler) Upload(c *gin.Context) {
	const op = "MeetingHandler.Upload"

	if _, ok := requireUserID(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing file field", err))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	var meetingDate *time.Time
	if s := c.PostForm("meeting_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "meeting_date must be YYYY-MM-DD", err))
			return
		}
		meetingDate = &d
	}

	var tags []string
	if s := c.PostForm("tags"); s != "" {
		for _, t := range strings.Split(s, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	meeting, err := h.meetings.Create(c.Request.Context(), title, meetingDate, tags, c.PostForm("folder"))
	if err != nil {
		writeError(c, err)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable upload", err))
		return
	}
	defer f.Close()

	key := storage.OriginalKey(meeting.ID, fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if _, err := h.store.Upload(c.Request.Context(), key, contentType, f); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to store upload", err))
		return
	}

	asset := &models.MediaAsset{
		ID:                  uuid.NewString(),
		MeetingID:           meeting.ID,
		OriginalObjectKey:   key,
		OriginalFilename:    fileHeader.Filename,
		OriginalContentType: contentType,
		CreatedAt:           time.Now().UTC(),
	}
	if err := h.media.Create(c.Request.Context(), asset); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to record upload", err))
		return
	}

	jobID, err := h.pipeline.StartIngest(c.Request.Context(), meeting.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"meeting": meeting,
		"job_id":  jobID,
	})
}

func (h *MeetingHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.meetings.List(c.Request.Context(), c.Query("folder"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": rows})
}

func (h *MeetingHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	id := c.Param("meeting_id")

	var cached models.Meeting
	if hit, _ := h.cache.GetJSON(c.Request.Context(), meetingCacheKey(id), &cached); hit {
		c.JSON(http.StatusOK, gin.H{"meeting": cached})
		return
	}

	m, err := h.meetings.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = h.cache.SetJSON(c.Request.Context(), meetingCacheKey(id), m, meetingCacheTTL)
	c.JSON(http.StatusOK, gin.H{"meeting": m})
}

func (h *MeetingHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	id := c.Param("meeting_id")
	if err := h.meetings.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	_ = h.cache.Del(c.Request.Context(), meetingCacheKey(id))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *MeetingHandler) Summaries(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.meetings.Summaries(c.Request.Context(), c.Param("meeting_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": rows})
}

// PlaybackURL returns a short-lived signed URL for the playable rendition.
func (h *MeetingHandler) PlaybackURL(c *gin.Context) {
	const op = "MeetingHandler.PlaybackURL"

	if _, ok := requireUserID(c); !ok {
		return
	}

	id := c.Param("meeting_id")
	asset, err := h.media.GetByMeeting(c.Request.Context(), id)
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, op, "meeting has no media", err))
		return
	}
	if asset.PlayableObjectKey == "" {
		writeError(c, utils.E(utils.CodeMissingAsset, op, "playable audio not ready", nil))
		return
	}

	url, err := h.store.SignedGetURL(c.Request.Context(), asset.PlayableObjectKey, 15*time.Minute)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to sign url", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "duration_ms": asset.DurationMS})
}

// Reprocess re-runs a failed meeting.
func (h *MeetingHandler) Reprocess(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	id := c.Param("meeting_id")
	jobID, err := h.pipeline.Reprocess(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	_ = h.cache.Del(c.Request.Context(), meetingCacheKey(id))
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}
