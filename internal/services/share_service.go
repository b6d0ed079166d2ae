package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/meetscribe/internal/models"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// ShareService issues and resolves opaque read-only tokens for a meeting.
// The returned token is "<link_id>.<secret>"; only the bcrypt hash of the
// secret is persisted, so a leaked database dump cannot be replayed.
type ShareService interface {
	Create(ctx context.Context, meetingID string) (*models.ShareLink, string, error)
	// Resolve returns the link a valid, unrevoked token points at.
	Resolve(ctx context.Context, token string) (*models.ShareLink, error)
	Revoke(ctx context.Context, linkID string) error
}

type shareService struct {
	meetings pgrepo.MeetingRepo
	links    pgrepo.ShareLinkRepo
}

func NewShareService(meetings pgrepo.MeetingRepo, links pgrepo.ShareLinkRepo) ShareService {
	return &shareService{meetings: meetings, links: links}
}

func (s *shareService) Create(ctx context.Context, meetingID string) (*models.ShareLink, string, error) {
	const op = "ShareService.Create"

	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return nil, "", utils.E(utils.CodeNotFound, op, "meeting not found", err)
	}

	secret, err := utils.NewShareSecret()
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to generate token", err)
	}
	hash, err := utils.HashToken(secret)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to hash token", err)
	}

	link := &models.ShareLink{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		TokenHash: hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to store share link", err)
	}
	return link, link.ID + "." + secret, nil
}

func (s *shareService) Resolve(ctx context.Context, token string) (*models.ShareLink, error) {
	const op = "ShareService.Resolve"

	linkID, secret, ok := strings.Cut(token, ".")
	if !ok || linkID == "" || secret == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "malformed share token", nil)
	}

	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "unknown share token", err)
	}
	if link.RevokedAt != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "share token revoked", nil)
	}
	if err := utils.CheckToken(link.TokenHash, secret); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid share token", nil)
	}
	return link, nil
}

func (s *shareService) Revoke(ctx context.Context, linkID string) error {
	const op = "ShareService.Revoke"

	if err := s.links.Revoke(ctx, linkID, time.Now().UTC()); err != nil {
		return utils.E(utils.CodeNotFound, op, "share link not found", err)
	}
	return nil
}
