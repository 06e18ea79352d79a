package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/paging"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/room"
	"github.com/PritStyling132/NEXUS-sub000/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LiveSessionService interface {
	Create(ctx context.Context, actorID uuid.UUID, in CreateLiveSessionInput) (*model.LiveSession, error)
	GetByID(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error)
	ListByGroup(ctx context.Context, actorID, groupID uuid.UUID, in ListLiveSessionsInput) (*ListLiveSessionsOutput, error)
	ListByCourse(ctx context.Context, actorID, courseID uuid.UUID, in ListLiveSessionsInput) (*ListLiveSessionsOutput, error)
	Start(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error)
	End(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error)
	Cancel(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error)
	Delete(ctx context.Context, actorID, sessionID uuid.UUID) error
	CanJoin(ctx context.Context, actorID, sessionID uuid.UUID) (*model.CanJoinResult, error)
	// Wait blocks until every detached fan-out has returned.
	Wait()
}

// LifecycleObserver is told about every successful lifecycle operation.
// Implementations must not block and must swallow their own failures.
type LifecycleObserver interface {
	OnLifecycle(ctx context.Context, ev model.LiveSessionEvent)
}

type CreateLiveSessionInput struct {
	CourseID    uuid.UUID
	GroupID     uuid.UUID
	Title       string
	Description *string
	ScheduledAt *time.Time
	IsInstant   bool
}

type ListLiveSessionsInput struct {
	Status   model.LiveSessionStatus
	Limit    int
	Cursor   string
	TimeDesc bool
}

type ListLiveSessionsOutput struct {
	Items      []model.LiveSession `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

type liveSessionService struct {
	sessions      repo.LiveSessionRepo
	community     repo.CommunityRepo
	policy        AccessPolicy
	notifier      Notifier
	observers     []LifecycleObserver
	rooms         room.Generator
	fanoutTimeout time.Duration
	log           *zap.Logger
	now           func() time.Time
	fanouts       sync.WaitGroup
}

func NewLiveSessionService(
	sessions repo.LiveSessionRepo,
	community repo.CommunityRepo,
	policy AccessPolicy,
	notifier Notifier,
	observers []LifecycleObserver,
	log *zap.Logger,
	cfg *config.Config,
) LiveSessionService {
	timeout := time.Duration(cfg.Fanout.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &liveSessionService{
		sessions:      sessions,
		community:     community,
		policy:        policy,
		notifier:      notifier,
		observers:     observers,
		rooms:         room.Generator{Host: cfg.Conferencing.Host, Prefix: cfg.Conferencing.RoomPrefix},
		fanoutTimeout: timeout,
		log:           log,
		now:           time.Now,
	}
}

func (s *liveSessionService) Create(ctx context.Context, actorID uuid.UUID, in CreateLiveSessionInput) (out *model.LiveSession, err error) {
	defer func() { telemetry.RecordTransition(ctx, string(model.OpCreate), resultLabel(err)) }()

	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	g, err := s.policy.Group(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !IsGroupOwner(g, actorID) {
		return nil, ErrForbidden
	}

	course, err := s.community.GetCourse(ctx, in.CourseID)
	if err != nil {
		if errors.Is(err, repo.ErrCourseNotFound) {
			return nil, newError(KindNotFound, "course not found", err)
		}
		return nil, dependency("load course", err)
	}
	if course.GroupID != in.GroupID {
		return nil, newError(KindNotFound, "course not found in group", nil)
	}

	now := s.now()
	ls := &model.LiveSession{
		CourseID:    in.CourseID,
		GroupID:     in.GroupID,
		CreatedBy:   actorID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		IsInstant:   in.IsInstant,
		Status:      model.LiveSessionScheduled,
		ScheduledAt: in.ScheduledAt,
	}
	if in.IsInstant {
		ls.Status = model.LiveSessionLive
		ls.StartedAt = &now
		ls.ScheduledAt = nil
	}

	if err := s.sessions.CreateWithRoom(ctx, ls, s.rooms.Address); err != nil {
		return nil, dependency("create live session", err)
	}

	s.log.Info("live session created",
		zap.String("live_session_id", ls.ID.String()),
		zap.String("group_id", ls.GroupID.String()),
		zap.String("user_id", actorID.String()),
		zap.String("status", string(ls.Status)))

	s.emit(ctx, model.OpCreate, ls, actorID, now)
	s.detachFanout(ctx, Announcement{
		Session:     *ls,
		OwnerID:     g.OwnerUserID,
		GroupName:   g.Name,
		CourseTitle: course.Title,
	})
	return ls, nil
}

// loadOwned resolves the session and its group and checks ownership.
func (s *liveSessionService) loadOwned(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	ls, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	owner, err := s.policy.IsOwner(ctx, actorID, ls.GroupID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrForbidden
	}
	return ls, nil
}

func (s *liveSessionService) get(ctx context.Context, sessionID uuid.UUID) (*model.LiveSession, error) {
	ls, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrLiveSessionNotFound) {
			return nil, newError(KindNotFound, "live session not found", err)
		}
		return nil, dependency("load live session", err)
	}
	return ls, nil
}

func (s *liveSessionService) Start(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error) {
	return s.transition(ctx, actorID, sessionID, model.OpStart)
}

func (s *liveSessionService) End(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error) {
	return s.transition(ctx, actorID, sessionID, model.OpEnd)
}

func (s *liveSessionService) Cancel(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error) {
	return s.transition(ctx, actorID, sessionID, model.OpCancel)
}

func (s *liveSessionService) transition(ctx context.Context, actorID, sessionID uuid.UUID, op model.LiveSessionOp) (out *model.LiveSession, err error) {
	defer func() { telemetry.RecordTransition(ctx, string(op), resultLabel(err)) }()

	ls, err := s.loadOwned(ctx, actorID, sessionID)
	if err != nil {
		return nil, err
	}

	tr, ok := model.TransitionFor(ls.Status, op)
	if !ok {
		return nil, newError(KindInvalidTransition,
			"cannot "+string(op)+" a live session that is "+string(ls.Status), nil)
	}

	now := s.now()
	extra := map[string]any{"updated_at": now}
	switch tr.To {
	case model.LiveSessionLive:
		extra["started_at"] = now
	case model.LiveSessionEnded:
		extra["ended_at"] = now
	}

	if err := s.sessions.UpdateStatus(ctx, ls.ID, model.SourceStatuses(op), tr.To, extra); err != nil {
		if errors.Is(err, repo.ErrStatusChanged) {
			return nil, newError(KindInvalidTransition, "live session status changed, retry with a fresh read", err)
		}
		return nil, dependency(string(op)+" live session", err)
	}

	ls.Status = tr.To
	ls.UpdatedAt = now
	switch tr.To {
	case model.LiveSessionLive:
		ls.StartedAt = &now
	case model.LiveSessionEnded:
		ls.EndedAt = &now
	}

	s.log.Info("live session "+string(op),
		zap.String("live_session_id", ls.ID.String()),
		zap.String("user_id", actorID.String()),
		zap.String("status", string(ls.Status)))

	s.emit(ctx, op, ls, actorID, now)
	return ls, nil
}

func (s *liveSessionService) Delete(ctx context.Context, actorID, sessionID uuid.UUID) (err error) {
	defer func() { telemetry.RecordTransition(ctx, string(model.OpDelete), resultLabel(err)) }()

	ls, err := s.loadOwned(ctx, actorID, sessionID)
	if err != nil {
		return err
	}
	if _, ok := model.TransitionFor(ls.Status, model.OpDelete); !ok {
		return newError(KindInvalidState, "only ended or cancelled live sessions can be deleted", nil)
	}

	if err := s.sessions.DeleteInStatus(ctx, ls.ID, model.SourceStatuses(model.OpDelete)); err != nil {
		if errors.Is(err, repo.ErrStatusChanged) {
			return newError(KindInvalidState, "live session is no longer deletable", err)
		}
		return dependency("delete live session", err)
	}

	s.log.Info("live session deleted",
		zap.String("live_session_id", ls.ID.String()),
		zap.String("user_id", actorID.String()))

	s.emit(ctx, model.OpDelete, ls, actorID, s.now())
	return nil
}

// access reports whether actor may see sessions of the group.
func (s *liveSessionService) access(ctx context.Context, actorID, groupID uuid.UUID) (owner bool, allowed bool, err error) {
	g, err := s.policy.Group(ctx, groupID)
	if err != nil {
		return false, false, err
	}
	if IsGroupOwner(g, actorID) {
		return true, true, nil
	}
	member, err := s.policy.IsMember(ctx, actorID, groupID)
	if err != nil {
		return false, false, err
	}
	return false, member, nil
}

func (s *liveSessionService) CanJoin(ctx context.Context, actorID, sessionID uuid.UUID) (*model.CanJoinResult, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	ls, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	owner, allowed, err := s.access(ctx, actorID, ls.GroupID)
	if err != nil {
		return nil, err
	}

	out := &model.CanJoinResult{CanJoin: allowed, IsOwner: owner}
	if allowed {
		out.Session = ls
	}
	return out, nil
}

func (s *liveSessionService) GetByID(ctx context.Context, actorID, sessionID uuid.UUID) (*model.LiveSession, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	ls, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	_, allowed, err := s.access(ctx, actorID, ls.GroupID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, newError(KindForbidden, "not a member of this group", nil)
	}
	return ls, nil
}

func (s *liveSessionService) ListByGroup(ctx context.Context, actorID, groupID uuid.UUID, in ListLiveSessionsInput) (*ListLiveSessionsOutput, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	_, allowed, err := s.access(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, newError(KindForbidden, "not a member of this group", nil)
	}
	return s.list(in, func(f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
		return s.sessions.ListByGroup(ctx, groupID, f)
	})
}

func (s *liveSessionService) ListByCourse(ctx context.Context, actorID, courseID uuid.UUID, in ListLiveSessionsInput) (*ListLiveSessionsOutput, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	course, err := s.community.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrCourseNotFound) {
			return nil, newError(KindNotFound, "course not found", err)
		}
		return nil, dependency("load course", err)
	}
	_, allowed, err := s.access(ctx, actorID, course.GroupID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, newError(KindForbidden, "not a member of this group", nil)
	}
	return s.list(in, func(f repo.LiveSessionListFilter) ([]model.LiveSession, error) {
		return s.sessions.ListByCourse(ctx, courseID, f)
	})
}

func (s *liveSessionService) list(in ListLiveSessionsInput, fetch func(repo.LiveSessionListFilter) ([]model.LiveSession, error)) (*ListLiveSessionsOutput, error) {
	f := repo.LiveSessionListFilter{Status: in.Status, TimeDesc: in.TimeDesc}
	if in.Cursor != "" {
		t, id, err := paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, newError(KindInvalidInput, "invalid cursor", err)
		}
		f.AfterCreatedAt, f.AfterID = t, id
	}
	limit := paging.ClampLimit(in.Limit)
	// limit+1 tells whether another page exists
	f.Limit = limit + 1

	items, err := fetch(f)
	if err != nil {
		return nil, dependency("list live sessions", err)
	}

	out := &ListLiveSessionsOutput{Items: items}
	if len(items) > limit {
		out.HasMore = true
		out.Items = items[:limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *liveSessionService) emit(ctx context.Context, op model.LiveSessionOp, ls *model.LiveSession, actorID uuid.UUID, at time.Time) {
	if len(s.observers) == 0 {
		return
	}
	ev := model.NewLiveSessionEvent(op, ls, actorID, at)
	for _, o := range s.observers {
		o.OnLifecycle(ctx, ev)
	}
}

// detachFanout runs the announcement after the caller has its answer.
// Request cancellation does not stop it; the fan-out timeout does.
func (s *liveSessionService) detachFanout(ctx context.Context, a Announcement) {
	if s.notifier == nil {
		return
	}
	s.fanouts.Add(1)
	go func() {
		defer s.fanouts.Done()
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fanoutTimeout)
		defer cancel()

		if err := s.notifier.Announce(fctx, a); err != nil {
			s.log.Warn("live session fan-out incomplete",
				zap.String("live_session_id", a.Session.ID.String()),
				zap.String("group_id", a.Session.GroupID.String()),
				zap.Error(err))
		}
	}()
}

func (s *liveSessionService) Wait() { s.fanouts.Wait() }
