package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/infra/mail"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fanoutFixture struct {
	owner, withEmail, noEmail model.User
	announcement              Announcement
}

func newFanoutFixture(instant bool) *fanoutFixture {
	ownerEmail, memberEmail := "owner@example.com", "ada@example.com"
	f := &fanoutFixture{
		owner:     model.User{ID: uuid.New(), Name: "Olivia", Email: &ownerEmail},
		withEmail: model.User{ID: uuid.New(), Name: "Ada", Email: &memberEmail},
		noEmail:   model.User{ID: uuid.New(), Name: "Bob"},
	}
	room := "https://meet.jit.si/nexus-live-abc"
	ls := model.LiveSession{
		ID:        uuid.New(),
		GroupID:   uuid.New(),
		CourseID:  uuid.New(),
		CreatedBy: f.owner.ID,
		Title:     "Channels <deep dive>",
		IsInstant: instant,
		RoomURL:   &room,
	}
	if !instant {
		at := time.Date(2026, 11, 2, 17, 0, 0, 0, time.UTC)
		ls.ScheduledAt = &at
	}
	f.announcement = Announcement{Session: ls, OwnerID: f.owner.ID, GroupName: "Go Guild", CourseTitle: "Concurrency"}
	return f
}

func (f *fanoutFixture) roster() []model.GroupMember {
	gid := f.announcement.Session.GroupID
	return []model.GroupMember{
		{GroupID: gid, UserID: f.owner.ID, User: &f.owner},
		{GroupID: gid, UserID: f.withEmail.ID, User: &f.withEmail},
		{GroupID: gid, UserID: f.noEmail.ID, User: &f.noEmail},
	}
}

func newTestNotifier(c *MockCommunityRepo, n *MockNotificationRepo, m *MockMailer, g FanoutGuard) Notifier {
	return NewFanoutNotifier(c, n, m, g, zap.NewNop(), testConfig())
}

func TestFanoutNotifier_InstantAnnouncement(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)
	ls := f.announcement.Session

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, ls.GroupID).Return(f.roster(), nil)
	community.On("GetUser", ctx, f.owner.ID).Return(&f.owner, nil)

	mailer := &MockMailer{}
	mailer.On("Send", ctx, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "ada@example.com" &&
			msg.Subject == "🔴 LIVE NOW: Channels <deep dive>" &&
			strings.Contains(msg.HTML, "Hi Ada") &&
			strings.Contains(msg.HTML, "Olivia") &&
			strings.Contains(msg.HTML, "Channels &lt;deep dive&gt;") &&
			strings.Contains(msg.HTML, "https://app.nexus.test/live-sessions/"+ls.ID.String())
	})).Return(nil).Once()

	notifications := &MockNotificationRepo{}
	notifications.On("CreateBatch", ctx, mock.MatchedBy(func(rows []model.Notification) bool {
		if len(rows) != 2 {
			return false
		}
		for _, r := range rows {
			if r.UserID == f.owner.ID || r.Type != model.NotificationTypeLiveSession ||
				r.GroupID == nil || *r.GroupID != ls.GroupID || r.IsRead ||
				r.Data["live_session_id"] != ls.ID.String() || r.Data["room_url"] != *ls.RoomURL {
				return false
			}
		}
		return strings.HasPrefix(rows[0].Title, "🔴 Live now")
	}), 50).Return(nil).Once()

	guard := &MockFanoutGuard{}
	guard.On("Acquire", ctx, ls.ID).Return(true, nil).Once()

	err := newTestNotifier(community, notifications, mailer, guard).Announce(ctx, f.announcement)
	require.NoError(t, err)

	mailer.AssertExpectations(t)
	notifications.AssertExpectations(t)
	guard.AssertExpectations(t)
}

func TestFanoutNotifier_ScheduledSubject(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(false)

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(f.roster(), nil)
	community.On("GetUser", ctx, mock.Anything).Return(nil, errors.New("user service down"))

	mailer := &MockMailer{}
	mailer.On("Send", ctx, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.Subject == "📅 Upcoming Live Session: Channels <deep dive>" &&
			strings.Contains(msg.HTML, "Mon, 02 Nov 2026 17:00:00 UTC") &&
			strings.Contains(msg.HTML, "Your group owner")
	})).Return(nil).Once()

	notifications := &MockNotificationRepo{}
	notifications.On("CreateBatch", ctx, mock.MatchedBy(func(rows []model.Notification) bool {
		return len(rows) == 2 && strings.Contains(rows[0].Message, "Mon, 02 Nov 2026 17:00:00 UTC")
	}), 50).Return(nil)

	require.NoError(t, newTestNotifier(community, notifications, mailer, nil).Announce(ctx, f.announcement))
	mailer.AssertExpectations(t)
}

func TestFanoutNotifier_AlreadyAnnounced(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)

	community := &MockCommunityRepo{}
	notifications := &MockNotificationRepo{}
	mailer := &MockMailer{}
	guard := &MockFanoutGuard{}
	guard.On("Acquire", ctx, f.announcement.Session.ID).Return(false, nil)

	require.NoError(t, newTestNotifier(community, notifications, mailer, guard).Announce(ctx, f.announcement))
	community.AssertNotCalled(t, "ListGroupMembers", mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestFanoutNotifier_GuardErrorStillAnnounces(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(f.roster(), nil)
	community.On("GetUser", ctx, mock.Anything).Return(&f.owner, nil)
	mailer := &MockMailer{}
	mailer.On("Send", ctx, mock.Anything).Return(nil)
	notifications := &MockNotificationRepo{}
	notifications.On("CreateBatch", ctx, mock.Anything, 50).Return(nil)
	guard := &MockFanoutGuard{}
	guard.On("Acquire", ctx, mock.Anything).Return(false, errors.New("dial tcp: connection refused"))

	require.NoError(t, newTestNotifier(community, notifications, mailer, guard).Announce(ctx, f.announcement))
	mailer.AssertNumberOfCalls(t, "Send", 1)
	notifications.AssertNumberOfCalls(t, "CreateBatch", 1)
}

func TestFanoutNotifier_FailuresAreAggregated(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)
	secondEmail := "bob@example.com"
	f.noEmail.Email = &secondEmail

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(f.roster(), nil)
	community.On("GetUser", ctx, mock.Anything).Return(&f.owner, nil)

	mailer := &MockMailer{}
	mailer.On("Send", ctx, mock.MatchedBy(func(msg mail.Message) bool { return msg.To == "ada@example.com" })).
		Return(errors.New("mailbox unavailable"))
	mailer.On("Send", ctx, mock.MatchedBy(func(msg mail.Message) bool { return msg.To == "bob@example.com" })).
		Return(nil)

	notifications := &MockNotificationRepo{}
	notifications.On("CreateBatch", ctx, mock.Anything, 50).Return(errors.New("insert failed"))

	err := newTestNotifier(community, notifications, mailer, nil).Announce(ctx, f.announcement)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox unavailable")
	assert.Contains(t, err.Error(), "insert failed")
	// Both sides ran even though each failed.
	mailer.AssertNumberOfCalls(t, "Send", 2)
	notifications.AssertNumberOfCalls(t, "CreateBatch", 1)
}

func TestFanoutNotifier_RosterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(nil, errors.New("connection reset"))
	mailer := &MockMailer{}
	notifications := &MockNotificationRepo{}

	err := newTestNotifier(community, notifications, mailer, nil).Announce(ctx, f.announcement)
	assertKind(t, err, KindDependencyFailure)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestFanoutNotifier_RosterFailureReleasesGuard(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)
	id := f.announcement.Session.ID

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(nil, errors.New("connection reset")).Once()
	guard := &MockFanoutGuard{}
	guard.On("Acquire", ctx, id).Return(true, nil).Once()
	guard.On("Release", ctx, id).Return(nil).Once()

	err := newTestNotifier(community, &MockNotificationRepo{}, &MockMailer{}, guard).Announce(ctx, f.announcement)
	assertKind(t, err, KindDependencyFailure)
	guard.AssertExpectations(t)
}

func TestFanoutNotifier_RosterFailureKeepsForeignGuard(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(nil, errors.New("connection reset"))
	guard := &MockFanoutGuard{}
	// Guard errored, so this call never held the marker.
	guard.On("Acquire", ctx, mock.Anything).Return(false, errors.New("dial tcp: connection refused"))

	err := newTestNotifier(community, &MockNotificationRepo{}, &MockMailer{}, guard).Announce(ctx, f.announcement)
	assertKind(t, err, KindDependencyFailure)
	guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestFanoutNotifier_OwnerOnlyGroup(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(true)

	community := &MockCommunityRepo{}
	community.On("ListGroupMembers", ctx, mock.Anything).Return(f.roster()[:1], nil)
	community.On("GetUser", ctx, mock.Anything).Return(&f.owner, nil)
	mailer := &MockMailer{}
	notifications := &MockNotificationRepo{}

	require.NoError(t, newTestNotifier(community, notifications, mailer, nil).Announce(ctx, f.announcement))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	notifications.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}
