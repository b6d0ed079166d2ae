package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/meetscribe/meetscribe/internal/models"
)

func newTranscriptFixture() (TranscriptService, *fakeSegmentRepo, *fakeRevisionRepo) {
	segments := &fakeSegmentRepo{}
	revisions := &fakeRevisionRepo{}
	svc := NewTranscriptService(segments, revisions, &fakeSpeakerRepo{})
	return svc, segments, revisions
}

func TestSnapshotNumbersRevisionsSequentially(t *testing.T) {
	svc, segments, _ := newTranscriptFixture()
	_ = segments.InsertBatch(context.Background(), []models.TranscriptSegment{
		{ID: "s1", MeetingID: "m1", StartMS: 0, EndMS: 1000, SpeakerKey: "spk_1", Text: "hello"},
	})

	for want := 1; want <= 3; want++ {
		rev, err := svc.Snapshot(context.Background(), "m1")
		if err != nil {
			t.Fatalf("Snapshot %d: %v", want, err)
		}
		if rev.RevisionNo != want {
			t.Errorf("RevisionNo = %d, want %d", rev.RevisionNo, want)
		}
	}
}

func TestSnapshotOrdersSegmentsByStart(t *testing.T) {
	svc, segments, _ := newTranscriptFixture()
	// inserted out of order, as a transcribe fan-out would
	_ = segments.InsertBatch(context.Background(), []models.TranscriptSegment{
		{ID: "s2", MeetingID: "m1", StartMS: 2000, EndMS: 3000, SpeakerKey: "spk_1", Text: "later"},
		{ID: "s1", MeetingID: "m1", StartMS: 0, EndMS: 1000, SpeakerKey: "spk_2", Text: "earlier"},
	})

	rev, err := svc.Snapshot(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	var payload struct {
		Segments []struct {
			ID      string `json:"id"`
			StartMS int    `json:"start_ms"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(rev.Snapshot, &payload); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if len(payload.Segments) != 2 {
		t.Fatalf("snapshot has %d segments, want 2", len(payload.Segments))
	}
	if payload.Segments[0].ID != "s1" || payload.Segments[1].ID != "s2" {
		t.Errorf("segments out of order: %v", payload.Segments)
	}
}

func TestSnapshotEmptyTranscript(t *testing.T) {
	svc, _, _ := newTranscriptFixture()

	rev, err := svc.Snapshot(context.Background(), "m1")
	if err != nil {
		t.Fatalf("empty snapshot should succeed: %v", err)
	}
	if rev.RevisionNo != 1 {
		t.Errorf("RevisionNo = %d, want 1", rev.RevisionNo)
	}

	var payload struct {
		Segments []any `json:"segments"`
	}
	_ = json.Unmarshal(rev.Snapshot, &payload)
	if len(payload.Segments) != 0 {
		t.Errorf("expected empty segment list, got %d", len(payload.Segments))
	}
}

func TestEditSegmentTextSnapshotsNewRevision(t *testing.T) {
	svc, segments, revisions := newTranscriptFixture()
	_ = segments.InsertBatch(context.Background(), []models.TranscriptSegment{
		{ID: "s1", MeetingID: "m1", StartMS: 0, EndMS: 1000, SpeakerKey: "spk_1", Text: "teh text"},
	})
	if _, err := svc.Snapshot(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}

	rev, err := svc.EditSegmentText(context.Background(), "s1", "the text")
	if err != nil {
		t.Fatalf("EditSegmentText: %v", err)
	}
	if rev.RevisionNo != 2 {
		t.Errorf("RevisionNo = %d, want 2", rev.RevisionNo)
	}

	got, _ := segments.GetByID(context.Background(), "s1")
	if got.Text != "the text" {
		t.Errorf("Text = %q, want updated", got.Text)
	}

	rows, _ := revisions.ListByMeeting(context.Background(), "m1")
	if len(rows) != 2 {
		t.Errorf("revision count = %d, want 2", len(rows))
	}
}

func TestEditSegmentTextUnknownSegment(t *testing.T) {
	svc, _, _ := newTranscriptFixture()
	if _, err := svc.EditSegmentText(context.Background(), "missing", "x"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestSpeakerLabelUpsert(t *testing.T) {
	svc, _, _ := newTranscriptFixture()
	ctx := context.Background()

	if err := svc.UpsertSpeakerLabel(ctx, "m1", "spk_1", "Dana"); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpsertSpeakerLabel(ctx, "m1", "spk_1", "Dana K."); err != nil {
		t.Fatal(err)
	}

	rows, err := svc.ListSpeakerLabels(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d labels, want 1 (upsert, not append)", len(rows))
	}
	if rows[0].DisplayName != "Dana K." {
		t.Errorf("DisplayName = %q, want latest value", rows[0].DisplayName)
	}
}
