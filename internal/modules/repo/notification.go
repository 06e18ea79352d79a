package repo

import (
	"context"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepo interface {
	CreateBatch(ctx context.Context, items []model.Notification, batchSize int) error
	// ListByUserWithCursor returns the newest notifications first.
	ListByUserWithCursor(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) NotificationRepo {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateBatch(ctx context.Context, items []model.Notification, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, batchSize).Error
}

func (r *notificationRepo) ListByUserWithCursor(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, unreadOnly bool) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where(
			"((created_at < ?) OR (created_at = ? AND id < ?))",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	var items []model.Notification
	return items, q.Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Notification{}).
			Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
			Updates(map[string]any{"is_read": true, "read_at": at, "updated_at": at}).Error; err != nil {
			return err
		}
		// Reading back also covers the already-read case.
		res := tx.Where("id = ? AND user_id = ?", notificationID, userID).Limit(1).Find(&n)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotificationNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}
