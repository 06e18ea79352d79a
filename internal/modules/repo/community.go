package repo

import (
	"context"
	"errors"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommunityRepo reads groups, memberships, courses and users. Those tables
// belong to the community service and are never written here.
type CommunityRepo interface {
	GetGroup(ctx context.Context, groupID uuid.UUID) (*model.Group, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	// ListGroupMembers returns the current roster with users preloaded.
	ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]model.GroupMember, error)
}

type communityRepo struct{ db *gorm.DB }

func NewCommunityRepo(db *gorm.DB) CommunityRepo {
	return &communityRepo{db: db}
}

func (r *communityRepo) GetGroup(ctx context.Context, groupID uuid.UUID) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *communityRepo) GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	var c model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", courseID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *communityRepo) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *communityRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepo) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]model.GroupMember, error) {
	var members []model.GroupMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}
