package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the narrow put/get surface the pipeline consumes.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// Object key layout, namespaced by artifact kind and meeting id.

func OriginalKey(meetingID, filename string) string {
	return "original/" + meetingID + "/" + filename
}

func NormalizedKey(meetingID string) string {
	return "normalized/" + meetingID + "/audio.wav"
}

func PlayableKey(meetingID string) string {
	return "playable/" + meetingID + "/audio.m4a"
}

func ClipKey(meetingID, segmentID string) string {
	return "clips/" + meetingID + "/" + segmentID + ".wav"
}
