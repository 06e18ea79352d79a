package db

import (
	"regexp"
	"strings"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var sslmodeRe = regexp.MustCompile(`(?i)\bsslmode\s*=\s*\w+`)

// withTLS forces sslmode=require on a key/value DSN.
func withTLS(dsn string) string {
	if sslmodeRe.MatchString(dsn) {
		return sslmodeRe.ReplaceAllString(dsn, "sslmode=require")
	}
	return strings.TrimRight(dsn, " ") + " sslmode=require"
}

func New(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.EnableTLS {
		dsn = withTLS(dsn)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// AutoMigrate creates the tables for local development. Production schema
// is applied with the migrate command.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.GroupMember{},
		&model.Course{},
		&model.LiveSession{},
		&model.Notification{},
	)
}

// RegisterOpenTelemetryPlugin must run after telemetry.SetupTracing so the
// plugin picks up the global tracer provider.
func RegisterOpenTelemetryPlugin(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin())
}
