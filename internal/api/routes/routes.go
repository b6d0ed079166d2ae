package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/meetscribe/meetscribe/internal/api/handlers"
	"github.com/meetscribe/meetscribe/internal/api/middleware"
)

type Deps struct {
	Meeting  *handlers.MeetingHandler
	Segment  *handlers.SegmentHandler
	QA       *handlers.QAHandler
	Share    *handlers.ShareHandler
	Job      *handlers.JobHandler
	Progress *handlers.ProgressHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public share view (token is the credential)
	r.GET("/share/:token", d.Share.View)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/meetings", d.Meeting.Upload)
	auth.GET("/meetings", d.Meeting.List)
	auth.GET("/meetings/:meeting_id", d.Meeting.Get)
	auth.DELETE("/meetings/:meeting_id", d.Meeting.Delete)
	auth.GET("/meetings/:meeting_id/summaries", d.Meeting.Summaries)
	auth.GET("/meetings/:meeting_id/playback", d.Meeting.PlaybackURL)
	auth.POST("/meetings/:meeting_id/reprocess", d.Meeting.Reprocess)

	auth.GET("/meetings/:meeting_id/segments", d.Segment.List)
	auth.PUT("/segments/:segment_id/text", d.Segment.EditText)
	auth.GET("/meetings/:meeting_id/revisions", d.Segment.ListRevisions)
	auth.GET("/meetings/:meeting_id/speakers", d.Segment.ListSpeakerLabels)
	auth.PUT("/meetings/:meeting_id/speakers", d.Segment.UpsertSpeakerLabel)

	auth.POST("/meetings/:meeting_id/qa", d.QA.Ask)

	auth.GET("/jobs/:job_id", d.Job.Get)

	auth.POST("/meetings/:meeting_id/share", d.Share.Create)
	auth.DELETE("/share/links/:link_id", d.Share.Revoke)

	// WebSocket progress stream
	auth.GET("/ws/meetings/:meeting_id/progress", d.Progress.MeetingWS)
}
