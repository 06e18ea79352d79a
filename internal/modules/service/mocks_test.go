package service

import (
	"context"
	"sync"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/infra/mail"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLiveSessionRepo is a mock implementation of LiveSessionRepo
type MockLiveSessionRepo struct {
	mock.Mock
}

func (m *MockLiveSessionRepo) CreateWithRoom(ctx context.Context, s *model.LiveSession, roomFor func(uuid.UUID) string) error {
	args := m.Called(ctx, s, roomFor)
	return args.Error(0)
}

func (m *MockLiveSessionRepo) Get(ctx context.Context, id uuid.UUID) (*model.LiveSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LiveSession), args.Error(1)
}

func (m *MockLiveSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus, to model.LiveSessionStatus, extra map[string]any) error {
	args := m.Called(ctx, id, from, to, extra)
	return args.Error(0)
}

func (m *MockLiveSessionRepo) DeleteInStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus) error {
	args := m.Called(ctx, id, from)
	return args.Error(0)
}

func (m *MockLiveSessionRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
	args := m.Called(ctx, groupID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LiveSession), args.Error(1)
}

func (m *MockLiveSessionRepo) ListByCourse(ctx context.Context, courseID uuid.UUID, f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
	args := m.Called(ctx, courseID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LiveSession), args.Error(1)
}

// MockCommunityRepo is a mock implementation of CommunityRepo
type MockCommunityRepo struct {
	mock.Mock
}

func (m *MockCommunityRepo) GetGroup(ctx context.Context, groupID uuid.UUID) (*model.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Group), args.Error(1)
}

func (m *MockCommunityRepo) GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCommunityRepo) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockCommunityRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommunityRepo) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]model.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GroupMember), args.Error(1)
}

// MockNotificationRepo is a mock implementation of NotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) CreateBatch(ctx context.Context, items []model.Notification, batchSize int) error {
	args := m.Called(ctx, items, batchSize)
	return args.Error(0)
}

func (m *MockNotificationRepo) ListByUserWithCursor(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error) {
	args := m.Called(ctx, userID, afterCreatedAt, afterID, limit, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (*model.Notification, error) {
	args := m.Called(ctx, userID, notificationID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Announce(ctx context.Context, a Announcement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockMailer is a mock implementation of mail.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockFanoutGuard is a mock implementation of FanoutGuard
type MockFanoutGuard struct {
	mock.Mock
}

func (m *MockFanoutGuard) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFanoutGuard) Release(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// recordingObserver keeps every lifecycle event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []model.LiveSessionEvent
}

func (o *recordingObserver) OnLifecycle(_ context.Context, ev model.LiveSessionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) ops() []model.LiveSessionOp {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.LiveSessionOp, 0, len(o.events))
	for _, ev := range o.events {
		out = append(out, ev.Op)
	}
	return out
}
