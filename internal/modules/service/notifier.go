package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/mail"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/PritStyling132/NEXUS-sub000/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Notifier announces a new live session to the members of its group.
type Notifier interface {
	Announce(ctx context.Context, a Announcement) error
}

// FanoutGuard ensures one announcement per session.
type FanoutGuard interface {
	Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID) error
}

type fanoutNotifier struct {
	community      repo.CommunityRepo
	notifications  repo.NotificationRepo
	mailer         mail.Mailer
	guard          FanoutGuard
	log            *zap.Logger
	batchSize      int
	maxConcurrency int
	appBaseURL     string
}

// NewFanoutNotifier delivers one email and one in-app notification per
// member. guard may be nil. Delivery is best-effort and never retried.
func NewFanoutNotifier(
	community repo.CommunityRepo,
	notifications repo.NotificationRepo,
	mailer mail.Mailer,
	guard FanoutGuard,
	log *zap.Logger,
	cfg *config.Config,
) Notifier {
	n := &fanoutNotifier{
		community:      community,
		notifications:  notifications,
		mailer:         mailer,
		guard:          guard,
		log:            log,
		batchSize:      cfg.Fanout.BatchSize,
		maxConcurrency: cfg.Fanout.MaxConcurrency,
		appBaseURL:     cfg.Mail.AppBaseURL,
	}
	if n.batchSize <= 0 {
		n.batchSize = 100
	}
	if n.maxConcurrency <= 0 {
		n.maxConcurrency = 8
	}
	return n
}

func (n *fanoutNotifier) Announce(ctx context.Context, a Announcement) error {
	start := time.Now()
	ls := &a.Session
	log := n.log.With(
		zap.String("live_session_id", ls.ID.String()),
		zap.String("group_id", ls.GroupID.String()))

	held := false
	if n.guard != nil {
		first, err := n.guard.Acquire(ctx, ls.ID)
		switch {
		case err != nil:
			log.Warn("fan-out guard unavailable, announcing anyway", zap.Error(err))
		case !first:
			log.Info("live session already announced, skipping fan-out")
			telemetry.RecordFanout(ctx, "skipped", 0)
			return nil
		default:
			held = true
		}
	}

	members, err := n.community.ListGroupMembers(ctx, ls.GroupID)
	if err != nil {
		// Nobody was told anything yet, so a replay may announce.
		if held {
			if rerr := n.guard.Release(ctx, ls.ID); rerr != nil {
				log.Warn("release fan-out guard failed", zap.Error(rerr))
			}
		}
		telemetry.RecordFanout(ctx, "failed", msSince(start))
		return dependency("load group roster", err)
	}

	hostName := ""
	if host, err := n.community.GetUser(ctx, ls.CreatedBy); err == nil {
		hostName = host.DisplayName()
	} else {
		log.Debug("host lookup failed", zap.Error(err))
	}

	recipients := make([]model.GroupMember, 0, len(members))
	for _, m := range members {
		// The owner announced it; they do not get their own notification.
		if m.UserID == a.OwnerID || m.UserID == ls.CreatedBy {
			continue
		}
		recipients = append(recipients, m)
	}
	if len(recipients) == 0 {
		telemetry.RecordFanout(ctx, "success", msSince(start))
		return nil
	}

	var (
		g                 errgroup.Group
		emailErr, rowsErr error
		sent, failed      int64
	)
	g.Go(func() error {
		sent, failed, emailErr = n.sendEmails(ctx, &a, hostName, recipients)
		return nil
	})
	g.Go(func() error {
		rowsErr = n.insertNotifications(ctx, &a, hostName, recipients)
		return nil
	})
	_ = g.Wait()

	err = multierr.Combine(emailErr, rowsErr)
	result := "success"
	if err != nil {
		result = "partial"
		if sent == 0 && rowsErr != nil {
			result = "failed"
		}
	}
	telemetry.RecordFanout(ctx, result, msSince(start))
	telemetry.RecordFanoutEmails(ctx, sent, failed)

	log.Info("live session fan-out finished",
		zap.String("result", result),
		zap.Int("recipients", len(recipients)),
		zap.Int64("emails_sent", sent),
		zap.Int64("emails_failed", failed),
		zap.Bool("notifications_stored", rowsErr == nil),
		zap.Duration("took", time.Since(start)))
	return err
}

// sendEmails mails every recipient with an address, at most maxConcurrency
// at a time. Individual failures are collected, not short-circuited.
func (n *fanoutNotifier) sendEmails(ctx context.Context, a *Announcement, hostName string, recipients []model.GroupMember) (sent, failed int64, err error) {
	subject := announcementSubject(&a.Session)

	var (
		g  errgroup.Group
		mu sync.Mutex
		ok atomic.Int64
		ko atomic.Int64
	)
	g.SetLimit(n.maxConcurrency)

	for _, m := range recipients {
		if m.User == nil || m.User.Email == nil || *m.User.Email == "" {
			continue
		}
		to := *m.User.Email
		name := m.User.DisplayName()
		g.Go(func() error {
			html, rerr := renderAnnouncement(a.view(name, hostName, n.appBaseURL))
			if rerr == nil {
				rerr = n.mailer.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html})
			}
			if rerr != nil {
				ko.Add(1)
				mu.Lock()
				err = multierr.Append(err, rerr)
				mu.Unlock()
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), ko.Load(), err
}

func (n *fanoutNotifier) insertNotifications(ctx context.Context, a *Announcement, hostName string, recipients []model.GroupMember) error {
	ls := &a.Session
	title, message := a.notificationText(hostName)
	groupID := ls.GroupID

	data := datatypes.JSONMap{
		"live_session_id": ls.ID.String(),
		"course_id":       ls.CourseID.String(),
		"is_instant":      ls.IsInstant,
	}
	if ls.RoomURL != nil {
		data["room_url"] = *ls.RoomURL
	}
	if ls.ScheduledAt != nil {
		data["scheduled_at"] = ls.ScheduledAt.UTC().Format(time.RFC3339)
	}

	rows := make([]model.Notification, 0, len(recipients))
	for _, m := range recipients {
		if m.UserID == uuid.Nil {
			continue
		}
		rows = append(rows, model.Notification{
			UserID:  m.UserID,
			GroupID: &groupID,
			Type:    model.NotificationTypeLiveSession,
			Title:   title,
			Message: message,
			Data:    data,
		})
	}
	if err := n.notifications.CreateBatch(ctx, rows, n.batchSize); err != nil {
		return dependency("store notifications", err)
	}
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
