package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jasselhoff/festival-planner/internal/metrics"
)

// Connect opens a pgx connection pool for databaseURL and verifies it with a
// ping. Every query on the pool is traced through MetricsTracer.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.ConnConfig.Tracer = &MetricsTracer{}

	slog.Info("Database SSL mode", "sslmode", extractSSLMode(databaseURL))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

// UpdatePoolMetrics publishes the pool's current connection gauges.
func UpdatePoolMetrics(pool *pgxpool.Pool) {
	stat := pool.Stat()
	metrics.DBConnectionsCurrent.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	metrics.DBConnectionsCurrent.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	metrics.DBConnectionsCurrent.WithLabelValues("max").Set(float64(stat.MaxConns()))
}

// ReadinessCheck returns a health probe that refreshes the pool gauges
// before pinging, so the connection numbers update on every readiness poll.
func ReadinessCheck(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		UpdatePoolMetrics(pool)
		return pool.Ping(ctx)
	}
}
