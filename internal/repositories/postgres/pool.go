package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var (
	_ repositories.DealRepository    = (*DealRepository)(nil)
	_ repositories.StoreRepository   = (*StoreRepository)(nil)
	_ repositories.ProfileRepository = (*ProfileRepository)(nil)
)

// NewPool opens a connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg models.PostgresConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the fixture tables if they do not exist. Requires PostGIS.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}
