package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/PritStyling132/NEXUS-sub000/internal/bootstrap"
	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/cache"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/db"
	mq "github.com/PritStyling132/NEXUS-sub000/internal/infra/queue"
	"github.com/PritStyling132/NEXUS-sub000/internal/middleware"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/handler"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
	"github.com/PritStyling132/NEXUS-sub000/internal/router"
	"github.com/PritStyling132/NEXUS-sub000/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP + WebSocket API",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	inj := bootstrap.BuildContainer()

	cfg, err := do.Invoke[*config.Config](inj)
	if err != nil {
		return err
	}
	log, err := do.Invoke[*zap.Logger](inj)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if _, err := telemetry.SetupTracing(cfg); err != nil {
		return err
	}
	if _, err := telemetry.SetupMetrics(cfg); err != nil {
		return err
	}

	gdb, err := do.Invoke[*gorm.DB](inj)
	if err != nil {
		return err
	}
	rdb, err := do.Invoke[*redis.Client](inj)
	if err != nil {
		return err
	}
	if cfg.Telemetry.Enabled {
		if err := db.RegisterOpenTelemetryPlugin(gdb); err != nil {
			log.Warn("gorm tracing disabled", zap.Error(err))
		}
		if rdb != nil {
			if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
				log.Warn("redis telemetry disabled", zap.Error(err))
			}
		}
	}

	engine, err := router.NewRouter(router.RouterDeps{
		Config:              cfg,
		Log:                 log,
		UserResolver:        do.MustInvoke[middleware.UserResolver](inj),
		LiveSessionHandler:  do.MustInvoke[*handler.LiveSessionHandler](inj),
		NotificationHandler: do.MustInvoke[*handler.NotificationHandler](inj),
		RealtimeHandler:     do.MustInvoke[*handler.RealtimeHandler](inj),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	waitForFanouts(shutdownCtx, do.MustInvoke[service.LiveSessionService](inj), log)

	if pub := do.MustInvoke[*mq.Publisher](inj); pub != nil {
		_ = pub.Close()
	}
	if rdb != nil {
		_ = cache.Close(rdb)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = telemetry.ShutdownMetrics(shutdownCtx)
	_ = telemetry.Shutdown(shutdownCtx)
	return nil
}

// waitForFanouts lets in-flight announcements finish until ctx expires.
func waitForFanouts(ctx context.Context, svc service.LiveSessionService, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("abandoning in-flight live session announcements")
	}
}
