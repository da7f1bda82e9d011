package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"event-hub/internal/model"
)

// Postgres — основная реализация Store поверх pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const upsertSQL = `
INSERT INTO event_cache (event_id, source, data, location, cached_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id, source) DO UPDATE SET
	data       = EXCLUDED.data,
	location   = EXCLUDED.location,
	cached_at  = EXCLUDED.cached_at,
	expires_at = EXCLUDED.expires_at`

func (s *Postgres) Put(ctx context.Context, events []model.Event, locationTag string, ttl time.Duration) error {
	now := time.Now().UTC()
	expires := now.Add(ttl)
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Key(), err)
		}
		_, err = s.pool.Exec(ctx, upsertSQL,
			e.ID, string(e.Source), data, locationTag, now, expires)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.Key(), err)
		}
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, locationTag string) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM event_cache
		 WHERE location = $1 AND expires_at > now()
		 ORDER BY cached_at DESC, id DESC`, locationTag)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		var e model.Event
		if err := json.Unmarshal(data, &e); err != nil {
			// Битая запись не должна ронять чтение целиком
			log.Printf("[cache] skipping corrupt row: %v", err)
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	return events, nil
}

func (s *Postgres) PurgeAll(ctx context.Context) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM event_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge all: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (s *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM event_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return ct.RowsAffected(), nil
}
