package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// EnsureDatabase creates the database named in databaseURL when it is missing,
// connecting through the "postgres" maintenance database.
func EnsureDatabase(databaseURL string, log *zap.Logger) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return errors.New("database name is empty in url")
	}
	u.Path = "/postgres"

	admin, err := sql.Open("postgres", u.String())
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRow("SELECT true FROM pg_database WHERE datname = $1", name).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := admin.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	log.Info("database created", zap.String("database", name))
	return nil
}

// resolveMigrationsDir finds dir as given, or relative to the parent of the working directory.
func resolveMigrationsDir(dir string) (string, error) {
	candidates := []string{dir}
	if !filepath.IsAbs(dir) {
		if cwd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(cwd, "..", dir))
		}
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("migrations dir %q not found", dir)
}

func newMigrate(databaseURL, dir string) (*migrate.Migrate, error) {
	abs, err := resolveMigrationsDir(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrate new: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration, creating the database first.
func MigrateUp(databaseURL, dir string, log *zap.Logger) error {
	if err := EnsureDatabase(databaseURL, log); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	m, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("migrate: no pending migrations")
	case err != nil:
		return err
	default:
		log.Info("migrate: up ok")
	}
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(databaseURL, dir string, steps int, log *zap.Logger) error {
	if steps <= 0 {
		return errors.New("steps must be positive")
	}
	m, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info("migrate: down ok", zap.Int("steps", steps))
	return nil
}

// CreateMigration writes an empty up/down pair named <unix>_<name>.
func CreateMigration(dir, name string, now time.Time) (up, down string, err error) {
	if name == "" {
		return "", "", errors.New("migration name required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%d_%s", now.Unix(), name)
	up = filepath.Join(dir, base+".up.sql")
	down = filepath.Join(dir, base+".down.sql")
	if err := os.WriteFile(up, []byte("-- migration up: "+name+"\n"), 0o644); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(down, []byte("-- migration down: "+name+"\n"), 0o644); err != nil {
		return "", "", err
	}
	return up, down, nil
}
