// Package cache holds the redis client and the fan-out guard built on it.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
)

const pingTimeout = 5 * time.Second

func options(rc config.RedisCfg) *redis.Options {
	opts := &redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
		PoolSize: rc.PoolSize,
	}
	if rc.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// New connects and pings redis. A client that cannot answer a ping is closed
// and not returned.
func New(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(options(cfg.Redis))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

// RegisterOpenTelemetryPlugin adds tracing and pool metrics. It must run after
// the global tracer and meter providers are set.
func RegisterOpenTelemetryPlugin(rdb *redis.Client) error {
	return multierr.Combine(
		redisotel.InstrumentTracing(rdb),
		redisotel.InstrumentMetrics(rdb),
	)
}

func Close(rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Close()
}
