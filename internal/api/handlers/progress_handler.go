package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// ProgressHandler streams pipeline progress over a websocket. Workers
// publish progress JSON to Redis; this handler forwards it verbatim.
type ProgressHandler struct {
	meetings services.MeetingService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewProgressHandler(meetings services.MeetingService, rdb *redis.Client) *ProgressHandler {
	return &ProgressHandler{
		meetings: meetings,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *ProgressHandler) MeetingWS(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	meetingID := c.Param("meeting_id")
	if meetingID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProgressHandler.MeetingWS", "missing meeting_id", nil))
		return
	}
	if _, err := h.meetings.Get(c.Request.Context(), meetingID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, services.ProgressChannel(meetingID))
	defer pubsub.Close()

	// reader exists only to detect close and answer pings
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case <-ping.C:
			wc.mu.Lock()
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := wc.writeText([]byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}
