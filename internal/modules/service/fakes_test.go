package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/google/uuid"
)

// memLiveSessionRepo keeps sessions in memory and honours the same
// conditional-update contract as the gorm repo.
type memLiveSessionRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.LiveSession
}

func newMemLiveSessionRepo() *memLiveSessionRepo {
	return &memLiveSessionRepo{rows: map[uuid.UUID]model.LiveSession{}}
}

func (r *memLiveSessionRepo) CreateWithRoom(_ context.Context, s *model.LiveSession, roomFor func(uuid.UUID) string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	addr := roomFor(s.ID)
	s.RoomURL = &addr
	r.rows[s.ID] = *s
	return nil
}

func (r *memLiveSessionRepo) Get(_ context.Context, id uuid.UUID) (*model.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, repo.ErrLiveSessionNotFound
	}
	return &s, nil
}

func statusIn(status model.LiveSessionStatus, from []model.LiveSessionStatus) bool {
	for _, f := range from {
		if f == status {
			return true
		}
	}
	return false
}

func (r *memLiveSessionRepo) UpdateStatus(_ context.Context, id uuid.UUID, from []model.LiveSessionStatus, to model.LiveSessionStatus, extra map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || !statusIn(s.Status, from) {
		return repo.ErrStatusChanged
	}
	s.Status = to
	if v, ok := extra["started_at"].(time.Time); ok {
		s.StartedAt = &v
	}
	if v, ok := extra["ended_at"].(time.Time); ok {
		s.EndedAt = &v
	}
	if v, ok := extra["updated_at"].(time.Time); ok {
		s.UpdatedAt = v
	}
	r.rows[id] = s
	return nil
}

func (r *memLiveSessionRepo) DeleteInStatus(_ context.Context, id uuid.UUID, from []model.LiveSessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || !statusIn(s.Status, from) {
		return repo.ErrStatusChanged
	}
	delete(r.rows, id)
	return nil
}

func (r *memLiveSessionRepo) list(match func(model.LiveSession) bool, f repo.LiveSessionListFilter) []model.LiveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.LiveSession{}
	for _, s := range r.rows {
		if match(s) && (f.Status == "" || s.Status == f.Status) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (r *memLiveSessionRepo) ListByGroup(_ context.Context, groupID uuid.UUID, f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
	return r.list(func(s model.LiveSession) bool { return s.GroupID == groupID }, f), nil
}

func (r *memLiveSessionRepo) ListByCourse(_ context.Context, courseID uuid.UUID, f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
	return r.list(func(s model.LiveSession) bool { return s.CourseID == courseID }, f), nil
}

// memCommunity is a fixed community: one group, its owner, one member and one course.
type memCommunity struct {
	owner   model.User
	member  model.User
	outside model.User
	group   model.Group
	course  model.Course
	// ownerTransfer, when set, is returned as the group's owner.
	ownerTransfer *uuid.UUID
	mu            sync.Mutex
}

func newMemCommunity() *memCommunity {
	ownerEmail, memberEmail := "owner@example.com", "member@example.com"
	c := &memCommunity{
		owner:   model.User{ID: uuid.New(), Name: "Olivia", Email: &ownerEmail},
		member:  model.User{ID: uuid.New(), Name: "Max", Email: &memberEmail},
		outside: model.User{ID: uuid.New(), Name: "Stranger"},
	}
	c.group = model.Group{ID: uuid.New(), Name: "Go Guild", OwnerUserID: c.owner.ID}
	c.course = model.Course{ID: uuid.New(), GroupID: c.group.ID, Title: "Concurrency"}
	return c
}

func (c *memCommunity) transferOwnership(to uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerTransfer = &to
}

func (c *memCommunity) GetGroup(_ context.Context, groupID uuid.UUID) (*model.Group, error) {
	if groupID != c.group.ID {
		return nil, repo.ErrGroupNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.group
	if c.ownerTransfer != nil {
		g.OwnerUserID = *c.ownerTransfer
	}
	return &g, nil
}

func (c *memCommunity) GetCourse(_ context.Context, courseID uuid.UUID) (*model.Course, error) {
	if courseID != c.course.ID {
		return nil, repo.ErrCourseNotFound
	}
	course := c.course
	return &course, nil
}

func (c *memCommunity) GetUser(_ context.Context, userID uuid.UUID) (*model.User, error) {
	for _, u := range []model.User{c.owner, c.member, c.outside} {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (c *memCommunity) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	return groupID == c.group.ID && userID == c.member.ID, nil
}

func (c *memCommunity) ListGroupMembers(_ context.Context, groupID uuid.UUID) ([]model.GroupMember, error) {
	if groupID != c.group.ID {
		return nil, nil
	}
	member := c.member
	return []model.GroupMember{{GroupID: groupID, UserID: member.ID, User: &member}}, nil
}
