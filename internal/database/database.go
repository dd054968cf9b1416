package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options tunes the connection pool. Zero durations fall back to defaults
// sized for a small always-on API service.
type Options struct {
	MaxConns          int32
	MinConns          int32
	ConnLifetime      time.Duration
	ConnIdleTime      time.Duration
	HealthCheckPeriod time.Duration
}

func (o *Options) applyDefaults() {
	if o.ConnLifetime <= 0 {
		o.ConnLifetime = 30 * time.Minute
	}
	if o.ConnIdleTime <= 0 {
		o.ConnIdleTime = 5 * time.Minute
	}
	if o.HealthCheckPeriod <= 0 {
		o.HealthCheckPeriod = 30 * time.Second
	}
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	opts.applyDefaults()
	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns
	cfg.MaxConnLifetime = opts.ConnLifetime
	cfg.MaxConnIdleTime = opts.ConnIdleTime
	cfg.HealthCheckPeriod = opts.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "max_conns", opts.MaxConns, "min_conns", opts.MinConns)
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
