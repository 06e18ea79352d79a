package repo

import (
	"context"
	"errors"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LiveSessionListFilter struct {
	Status         model.LiveSessionStatus
	AfterCreatedAt time.Time
	AfterID        uuid.UUID
	Limit          int
	TimeDesc       bool
}

type LiveSessionRepo interface {
	// CreateWithRoom inserts s and then writes its room address, derived from
	// the generated id, in the same transaction.
	CreateWithRoom(ctx context.Context, s *model.LiveSession, roomFor func(uuid.UUID) string) error
	Get(ctx context.Context, id uuid.UUID) (*model.LiveSession, error)
	// UpdateStatus moves the session to `to` only while its status is one of
	// `from`. Extra columns are written in the same statement.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus, to model.LiveSessionStatus, extra map[string]any) error
	DeleteInStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, f LiveSessionListFilter) ([]model.LiveSession, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, f LiveSessionListFilter) ([]model.LiveSession, error)
}

type liveSessionRepo struct{ db *gorm.DB }

func NewLiveSessionRepo(db *gorm.DB) LiveSessionRepo {
	return &liveSessionRepo{db: db}
}

func (r *liveSessionRepo) CreateWithRoom(ctx context.Context, s *model.LiveSession, roomFor func(uuid.UUID) string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		addr := roomFor(s.ID)
		if err := tx.Model(&model.LiveSession{}).
			Where("id = ? AND room_url IS NULL", s.ID).
			Update("room_url", addr).Error; err != nil {
			return err
		}
		s.RoomURL = &addr
		return nil
	})
}

func (r *liveSessionRepo) Get(ctx context.Context, id uuid.UUID) (*model.LiveSession, error) {
	var s model.LiveSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLiveSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *liveSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus, to model.LiveSessionStatus, extra map[string]any) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&model.LiveSession{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *liveSessionRepo) DeleteInStatus(ctx context.Context, id uuid.UUID, from []model.LiveSessionStatus) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, from).
		Delete(&model.LiveSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *liveSessionRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, f LiveSessionListFilter) ([]model.LiveSession, error) {
	return r.list(r.db.WithContext(ctx).Where("group_id = ?", groupID), f)
}

func (r *liveSessionRepo) ListByCourse(ctx context.Context, courseID uuid.UUID, f LiveSessionListFilter) ([]model.LiveSession, error) {
	return r.list(r.db.WithContext(ctx).Where("course_id = ?", courseID), f)
}

func (r *liveSessionRepo) list(q *gorm.DB, f LiveSessionListFilter) ([]model.LiveSession, error) {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	if !f.AfterCreatedAt.IsZero() && f.AfterID != uuid.Nil {
		comparisonOp := ">"
		if f.TimeDesc {
			comparisonOp = "<"
		}
		q = q.Where(
			"((created_at "+comparisonOp+" ?) OR (created_at = ? AND id "+comparisonOp+" ?))",
			f.AfterCreatedAt, f.AfterCreatedAt, f.AfterID,
		)
	}

	orderBy := "created_at ASC, id ASC"
	if f.TimeDesc {
		orderBy = "created_at DESC, id DESC"
	}

	var items []model.LiveSession
	return items, q.Order(orderBy).Limit(f.Limit).Find(&items).Error
}
