package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/rs/zerolog"
)

// Pool tuning. The hot path is the advance transition: one conditional
// single-row UPDATE per question answered, so connections turn over fast and
// a modest cap covers a full exam room. The health check keeps idle
// connections honest between sittings.
const (
	pgMinConns          = 2
	pgMaxConnIdleTime   = 5 * time.Minute
	pgHealthCheckPeriod = time.Minute
)

// NewPostgresPool builds and pings the pgx connection pool.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	if poolCfg.MaxConns > pgMinConns {
		poolCfg.MinConns = pgMinConns
	}
	poolCfg.MaxConnIdleTime = pgMaxConnIdleTime
	poolCfg.HealthCheckPeriod = pgHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Msg("Postgres pool ready")

	return pool, nil
}
