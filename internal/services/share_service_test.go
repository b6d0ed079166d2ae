package services

import (
	"context"
	"strings"
	"testing"
)

func newShareFixture(t *testing.T) (ShareService, string) {
	t.Helper()
	meetings := newFakeMeetingRepo()
	svc := NewMeetingService(meetings, newFakeSummaryRepo(), NoopProgressPublisher{})
	m, err := svc.Create(context.Background(), "retro", nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	return NewShareService(meetings, newFakeShareRepo()), m.ID
}

func TestShareTokenRoundTrip(t *testing.T) {
	shares, meetingID := newShareFixture(t)
	ctx := context.Background()

	link, token, err := shares.Create(ctx, meetingID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(token, link.ID+".") {
		t.Fatalf("token %q does not embed the link id", token)
	}
	if strings.Contains(link.TokenHash, strings.TrimPrefix(token, link.ID+".")) {
		t.Error("stored hash must not contain the secret")
	}

	resolved, err := shares.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.MeetingID != meetingID {
		t.Errorf("resolved meeting = %q, want %q", resolved.MeetingID, meetingID)
	}
}

func TestShareResolveRejectsBadTokens(t *testing.T) {
	shares, meetingID := newShareFixture(t)
	ctx := context.Background()

	link, token, err := shares.Create(ctx, meetingID)
	if err != nil {
		t.Fatal(err)
	}

	cases := []string{
		"",
		"no-separator",
		link.ID + ".wrongsecret",
		"unknown-link." + strings.SplitN(token, ".", 2)[1],
	}
	for _, bad := range cases {
		if _, err := shares.Resolve(ctx, bad); err == nil {
			t.Errorf("Resolve(%q) succeeded, want error", bad)
		}
	}
}

func TestShareRevoke(t *testing.T) {
	shares, meetingID := newShareFixture(t)
	ctx := context.Background()

	link, token, err := shares.Create(ctx, meetingID)
	if err != nil {
		t.Fatal(err)
	}
	if err := shares.Revoke(ctx, link.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := shares.Resolve(ctx, token); err == nil {
		t.Fatal("revoked token must not resolve")
	}
}

func TestShareCreateUnknownMeeting(t *testing.T) {
	shares, _ := newShareFixture(t)
	if _, _, err := shares.Create(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}
