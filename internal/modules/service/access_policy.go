package service

import (
	"context"
	"errors"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/google/uuid"
)

// AccessPolicy answers ownership and membership questions. Every call reads
// the store; ownership can change between requests and must not be cached.
type AccessPolicy interface {
	// Group resolves the group or returns a KindNotFound error.
	Group(ctx context.Context, groupID uuid.UUID) (*model.Group, error)
	IsOwner(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
}

type accessPolicy struct {
	community repo.CommunityRepo
}

func NewAccessPolicy(community repo.CommunityRepo) AccessPolicy {
	return &accessPolicy{community: community}
}

func (p *accessPolicy) Group(ctx context.Context, groupID uuid.UUID) (*model.Group, error) {
	g, err := p.community.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repo.ErrGroupNotFound) {
			return nil, newError(KindNotFound, "group not found", err)
		}
		return nil, dependency("load group", err)
	}
	return g, nil
}

func (p *accessPolicy) IsOwner(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	g, err := p.Group(ctx, groupID)
	if err != nil {
		return false, err
	}
	return IsGroupOwner(g, userID), nil
}

func (p *accessPolicy) IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	ok, err := p.community.IsMember(ctx, groupID, userID)
	if err != nil {
		return false, dependency("check membership", err)
	}
	return ok, nil
}

func IsGroupOwner(g *model.Group, userID uuid.UUID) bool {
	return g != nil && userID != uuid.Nil && g.OwnerUserID == userID
}
