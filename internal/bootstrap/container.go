package bootstrap

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/cache"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/db"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/logger"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/mail"
	mq "github.com/PritStyling132/NEXUS-sub000/internal/infra/queue"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/realtime"
	"github.com/PritStyling132/NEXUS-sub000/internal/middleware"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/handler"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level, cfg.App.Env)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate, for local development only
		if cfg.Database.AutoMigrate {
			if err := db.AutoMigrate(d); err != nil {
				return nil, err
			}
			log.Info("database auto-migrated")
		}
		return d, nil
	})

	// Redis, optional. Without it every create announces.
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Redis.Addr == "" {
			return nil, nil
		}
		return cache.New(cfg)
	})
	do.Provide(inj, func(i *do.Injector) (service.FanoutGuard, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb := do.MustInvoke[*redis.Client](i)
		if rdb == nil {
			return nil, nil
		}
		return cache.NewFanoutGuard(rdb, time.Duration(cfg.Fanout.GuardTTLSec)*time.Second), nil
	})

	// RabbitMQ, optional. Lifecycle events are not published without it.
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		return mq.Dial(cfg)
	})
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		conn := do.MustInvoke[*amqp.Connection](i)
		if conn == nil {
			return nil, nil
		}
		return mq.NewPublisher(conn, do.MustInvoke[*zap.Logger](i), do.MustInvoke[*config.Config](i))
	})

	// Status feed
	do.Provide(inj, func(i *do.Injector) (*realtime.StatusHub, error) {
		return realtime.NewStatusHub(do.MustInvoke[*zap.Logger](i)), nil
	})

	// Observers of lifecycle changes
	do.Provide(inj, func(i *do.Injector) ([]service.LifecycleObserver, error) {
		observers := []service.LifecycleObserver{do.MustInvoke[*realtime.StatusHub](i)}
		if pub := do.MustInvoke[*mq.Publisher](i); pub != nil {
			observers = append(observers, pub)
		}
		return observers, nil
	})

	// Mail
	do.Provide(inj, func(i *do.Injector) (mail.Mailer, error) {
		return mail.New(do.MustInvoke[*config.Config](i), do.MustInvoke[*zap.Logger](i))
	})

	// Auth
	do.Provide(inj, func(i *do.Injector) (middleware.UserResolver, error) {
		return middleware.NewSupabaseResolver(do.MustInvoke[*config.Config](i)), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.LiveSessionRepo, error) {
		return repo.NewLiveSessionRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.CommunityRepo, error) {
		return repo.NewCommunityRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.NotificationRepo, error) {
		return repo.NewNotificationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.AccessPolicy, error) {
		return service.NewAccessPolicy(do.MustInvoke[repo.CommunityRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.Notifier, error) {
		return service.NewFanoutNotifier(
			do.MustInvoke[repo.CommunityRepo](i),
			do.MustInvoke[repo.NotificationRepo](i),
			do.MustInvoke[mail.Mailer](i),
			do.MustInvoke[service.FanoutGuard](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.LiveSessionService, error) {
		return service.NewLiveSessionService(
			do.MustInvoke[repo.LiveSessionRepo](i),
			do.MustInvoke[repo.CommunityRepo](i),
			do.MustInvoke[service.AccessPolicy](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[[]service.LifecycleObserver](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.NotificationService, error) {
		return service.NewNotificationService(do.MustInvoke[repo.NotificationRepo](i)), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.LiveSessionHandler, error) {
		return handler.NewLiveSessionHandler(do.MustInvoke[service.LiveSessionService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.NotificationHandler, error) {
		return handler.NewNotificationHandler(do.MustInvoke[service.NotificationService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.RealtimeHandler, error) {
		return handler.NewRealtimeHandler(
			do.MustInvoke[service.LiveSessionService](i),
			do.MustInvoke[*realtime.StatusHub](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	return inj
}
