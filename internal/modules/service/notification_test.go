package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/paging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()
	rows := []model.Notification{
		{ID: uuid.New(), UserID: userID, CreatedAt: now},
		{ID: uuid.New(), UserID: userID, CreatedAt: now.Add(-time.Second)},
		{ID: uuid.New(), UserID: userID, CreatedAt: now.Add(-2 * time.Second)},
	}

	tests := []struct {
		name    string
		userID  uuid.UUID
		input   ListNotificationsInput
		setup   func(*MockNotificationRepo)
		wantErr Kind
		check   func(*testing.T, *ListNotificationsOutput)
	}{
		{
			name:   "has more",
			userID: userID,
			input:  ListNotificationsInput{Limit: 2, UnreadOnly: true},
			setup: func(r *MockNotificationRepo) {
				r.On("ListByUserWithCursor", ctx, userID, time.Time{}, uuid.UUID{}, 3, true).Return(rows, nil)
			},
			check: func(t *testing.T, out *ListNotificationsOutput) {
				assert.True(t, out.HasMore)
				assert.Len(t, out.Items, 2)
				assert.Equal(t, paging.EncodeCursor(rows[1].CreatedAt, rows[1].ID), out.NextCursor)
			},
		},
		{
			name:   "last page",
			userID: userID,
			input:  ListNotificationsInput{Limit: 10},
			setup: func(r *MockNotificationRepo) {
				r.On("ListByUserWithCursor", ctx, userID, time.Time{}, uuid.UUID{}, 11, false).Return(rows, nil)
			},
			check: func(t *testing.T, out *ListNotificationsOutput) {
				assert.False(t, out.HasMore)
				assert.Len(t, out.Items, 3)
				assert.Empty(t, out.NextCursor)
			},
		},
		{
			name:   "negative limit uses the default page",
			userID: userID,
			input:  ListNotificationsInput{Limit: -1},
			setup: func(r *MockNotificationRepo) {
				r.On("ListByUserWithCursor", ctx, userID, time.Time{}, uuid.UUID{}, paging.DefaultLimit+1, false).Return(rows, nil)
			},
			check: func(t *testing.T, out *ListNotificationsOutput) {
				assert.False(t, out.HasMore)
				assert.Len(t, out.Items, 3)
			},
		},
		{
			name:    "invalid cursor",
			userID:  userID,
			input:   ListNotificationsInput{Limit: 10, Cursor: "not-a-cursor"},
			setup:   func(r *MockNotificationRepo) {},
			wantErr: KindInvalidInput,
		},
		{
			name:   "store failure",
			userID: userID,
			input:  ListNotificationsInput{Limit: 10},
			setup: func(r *MockNotificationRepo) {
				r.On("ListByUserWithCursor", ctx, userID, mock.Anything, mock.Anything, 11, false).Return(nil, errors.New("boom"))
			},
			wantErr: KindDependencyFailure,
		},
		{
			name:    "anonymous",
			userID:  uuid.Nil,
			input:   ListNotificationsInput{Limit: 10},
			setup:   func(r *MockNotificationRepo) {},
			wantErr: KindUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockNotificationRepo{}
			tt.setup(r)
			svc := NewNotificationService(r)

			out, err := svc.List(ctx, tt.userID, tt.input)
			if tt.wantErr != 0 {
				assertKind(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, out)
			r.AssertExpectations(t)
		})
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	userID, notificationID := uuid.New(), uuid.New()

	t.Run("marks the caller's notification", func(t *testing.T) {
		r := &MockNotificationRepo{}
		readAt := time.Now()
		r.On("MarkRead", ctx, userID, notificationID, mock.AnythingOfType("time.Time")).
			Return(&model.Notification{ID: notificationID, UserID: userID, IsRead: true, ReadAt: &readAt}, nil)

		n, err := NewNotificationService(r).MarkRead(ctx, userID, notificationID)
		require.NoError(t, err)
		assert.True(t, n.IsRead)
	})

	t.Run("not the caller's notification", func(t *testing.T) {
		r := &MockNotificationRepo{}
		r.On("MarkRead", ctx, userID, notificationID, mock.Anything).Return(nil, repo.ErrNotificationNotFound)

		_, err := NewNotificationService(r).MarkRead(ctx, userID, notificationID)
		assertKind(t, err, KindNotFound)
	})
}

func TestNotificationService_Counts(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	r := &MockNotificationRepo{}
	r.On("CountUnread", ctx, userID).Return(int64(4), nil).Once()
	r.On("MarkAllRead", ctx, userID, mock.Anything).Return(int64(4), nil).Once()
	svc := NewNotificationService(r)

	n, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	updated, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)

	r2 := &MockNotificationRepo{}
	r2.On("CountUnread", ctx, userID).Return(int64(0), errors.New("boom"))
	_, err = NewNotificationService(r2).UnreadCount(ctx, userID)
	assertKind(t, err, KindDependencyFailure)
}
