package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

const createAnalysesTable = `
CREATE TABLE IF NOT EXISTS analyses (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	payload     TEXT NOT NULL DEFAULT '',
	results     JSONB NOT NULL,
	produced_at TIMESTAMPTZ NOT NULL
)`

// Postgres persists records into an analyses table.
type Postgres struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects a pgx pool and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createAnalysesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure analyses table: %w", err)
	}
	logger.Info("PostgreSQL sink connected")
	return &Postgres{db: pool, logger: logger}, nil
}

// Accept inserts one record.
func (s *Postgres) Accept(ctx context.Context, rec *agent.Record) error {
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO analyses (id, kind, fingerprint, payload, results, produced_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Item.Kind, rec.Item.Fingerprint, rec.Item.Text, results, rec.ProducedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Postgres) Close() error {
	s.db.Close()
	return nil
}
