package cache

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the cache table and the operator-curated
// local_events table. Все выражения идемпотентны.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS event_cache (
			id         BIGSERIAL PRIMARY KEY,
			event_id   TEXT NOT NULL,
			source     TEXT NOT NULL,
			data       JSONB NOT NULL,
			location   TEXT NOT NULL DEFAULT '',
			cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS event_cache_key
			ON event_cache (event_id, source)`,
		`CREATE INDEX IF NOT EXISTS event_cache_location
			ON event_cache (location)`,
		`CREATE INDEX IF NOT EXISTS event_cache_expires
			ON event_cache (expires_at)`,

		`CREATE TABLE IF NOT EXISTS local_events (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			event_date  DATE NOT NULL,
			event_time  TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			venue       TEXT NOT NULL DEFAULT '',
			price       TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			image       TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			organizer   TEXT NOT NULL DEFAULT '',
			published   BOOLEAN NOT NULL DEFAULT true,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS local_events_location
			ON local_events (location)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
