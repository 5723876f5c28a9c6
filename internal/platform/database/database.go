// Package database opens the PostgreSQL pool that holds topic documents.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AppName tags predictor connections in pg_stat_activity.
const AppName = "pai-predict"

// Options tunes the pool. Zero values keep the pgx defaults.
type Options struct {
	MaxConns int
	MinConns int
	AppName  string
}

// DB is an open document pool.
type DB struct {
	Pool *pgxpool.Pool
}

// poolConfig turns a connection URL and options into a pool config. MinConns
// is clamped to MaxConns.
func poolConfig(url string, opts Options) (*pgxpool.Config, error) {
	if url == "" {
		return nil, errors.New("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = min(int32(opts.MinConns), cfg.MaxConns)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	name := opts.AppName
	if name == "" {
		name = AppName
	}
	if _, set := cfg.ConnConfig.RuntimeParams["application_name"]; !set {
		cfg.ConnConfig.RuntimeParams["application_name"] = name
	}
	return cfg, nil
}

// Open connects the pool and checks it answers.
func Open(ctx context.Context, url string, opts Options) (*DB, error) {
	cfg, err := poolConfig(url, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating document pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Name identifies the pool in readiness reports.
func (db *DB) Name() string {
	return "database"
}

// HealthCheck pings through the pool.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return errors.New("database pool is not open")
	}
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Stats is a snapshot of pool usage.
type Stats struct {
	Max      int32
	Total    int32
	Idle     int32
	Acquired int32
}

// Stats reports pool usage. A nil DB reports zeros.
func (db *DB) Stats() Stats {
	if db == nil || db.Pool == nil {
		return Stats{}
	}
	s := db.Pool.Stat()
	return Stats{
		Max:      s.MaxConns(),
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
	}
}
