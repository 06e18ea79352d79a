package service

import (
	"context"
	"errors"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/paging"
	"github.com/google/uuid"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, in ListNotificationsInput) (*ListNotificationsOutput, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	r   repo.NotificationRepo
	now func() time.Time
}

func NewNotificationService(r repo.NotificationRepo) NotificationService {
	return &notificationService{r: r, now: time.Now}
}

type ListNotificationsInput struct {
	Limit      int    `json:"limit"`
	Cursor     string `json:"cursor"`
	UnreadOnly bool   `json:"unread_only"`
}

type ListNotificationsOutput struct {
	Items      []model.Notification `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, in ListNotificationsInput) (*ListNotificationsOutput, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	var afterT time.Time
	var afterID uuid.UUID
	if in.Cursor != "" {
		var err error
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, newError(KindInvalidInput, "invalid cursor", err)
		}
	}

	limit := paging.ClampLimit(in.Limit)
	items, err := s.r.ListByUserWithCursor(ctx, userID, afterT, afterID, limit+1, in.UnreadOnly)
	if err != nil {
		return nil, dependency("list notifications", err)
	}

	out := &ListNotificationsOutput{Items: items}
	if len(items) > limit {
		out.HasMore = true
		out.Items = items[:limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrUnauthorized
	}
	n, err := s.r.CountUnread(ctx, userID)
	if err != nil {
		return 0, dependency("count unread notifications", err)
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	n, err := s.r.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotificationNotFound) {
			return nil, newError(KindNotFound, "notification not found", err)
		}
		return nil, dependency("mark notification read", err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrUnauthorized
	}
	n, err := s.r.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, dependency("mark notifications read", err)
	}
	return n, nil
}
