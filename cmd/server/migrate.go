package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/db"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/logger"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|create <name>]",
	Short: "Apply, roll back or create SQL migrations",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back with down")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.App.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "up":
		return db.MigrateUp(cfg.Database.URL, cfg.Database.MigrateDir, log)
	case "down":
		return db.MigrateDown(cfg.Database.URL, cfg.Database.MigrateDir, migrateSteps, log)
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("migration name required")
		}
		up, down, err := db.CreateMigration(cfg.Database.MigrateDir, args[1], time.Now())
		if err != nil {
			return err
		}
		log.Info("migration created", zap.String("up", up), zap.String("down", down))
		return nil
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}
