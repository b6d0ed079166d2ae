package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// ProgressPublisher pushes stage/percent updates to live subscribers.
// Publishing is best-effort telemetry; failures never block the pipeline.
type ProgressPublisher interface {
	Publish(ctx context.Context, meetingID string, payload map[string]any)
}

func ProgressChannel(meetingID string) string {
	return "meeting:" + meetingID + ":progress"
}

type redisProgressPublisher struct {
	rdb *redis.Client
}

func NewRedisProgressPublisher(rdb *redis.Client) ProgressPublisher {
	return &redisProgressPublisher{rdb: rdb}
}

func (p *redisProgressPublisher) Publish(ctx context.Context, meetingID string, payload map[string]any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = p.rdb.Publish(ctx, ProgressChannel(meetingID), string(b)).Err()
}

// NoopProgressPublisher is used where no live subscribers exist.
type NoopProgressPublisher struct{}

func (NoopProgressPublisher) Publish(context.Context, string, map[string]any) {}
