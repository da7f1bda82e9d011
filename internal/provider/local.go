package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"event-hub/internal/debuglog"
	"event-hub/internal/metrics"
	"event-hub/internal/model"
)

const localName = "custom"

const localSelect = `
SELECT id::text, title, description, event_date,
       event_time, location, venue, price, url, image, category, organizer
FROM local_events
WHERE published AND ($1 = '' OR location ILIKE '%' || $1 || '%')
ORDER BY event_date, event_time`

// LocalStore читает события, заведённые оператором вручную, из таблицы
// local_events. Без настроенной базы источник считается недоступным —
// как провайдер без ключа.
type LocalStore struct {
	pool  *pgxpool.Pool
	debug *debuglog.Log
}

func NewLocalStore(pool *pgxpool.Pool, debug *debuglog.Log) *LocalStore {
	return &LocalStore{pool: pool, debug: debug}
}

func (s *LocalStore) Name() string { return localName }

func (s *LocalStore) FetchEvents(ctx context.Context, q Query) []model.Event {
	if s.pool == nil {
		s.debug.Logf(localName, "skipped: no database configured")
		return []model.Event{}
	}

	start := time.Now()
	events, err := s.fetch(ctx, q.Location)
	metrics.FetchDuration.WithLabelValues(localName).Observe(time.Since(start).Seconds())
	if err != nil {
		s.debug.Logf(localName, "fetch failed: %v", err)
		metrics.ProviderErrors.WithLabelValues(localName).Inc()
		return []model.Event{}
	}
	s.debug.Logf(localName, "fetched %d events for %q", len(events), q.Location)
	metrics.EventsFetched.WithLabelValues(localName).Add(float64(len(events)))
	return events
}

func (s *LocalStore) fetch(ctx context.Context, locationFilter string) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, localSelect, locationFilter)
	if err != nil {
		return nil, fmt.Errorf("query local_events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e    model.Event
			date time.Time
		)
		err := rows.Scan(&e.ID, &e.Title, &e.Description, &date,
			&e.Time, &e.Location, &e.Venue, &e.Price, &e.URL, &e.Image,
			&e.Category, &e.Organizer)
		if err != nil {
			return nil, fmt.Errorf("scan local_events: %w", err)
		}
		e.Source = model.SourceCustom
		e.Date = date.Format("2006-01-02")
		e.Title = stripHTML(e.Title)
		e.Description = stripHTML(e.Description)
		if e.Category == "" {
			e.Category = categoryOther
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read local_events: %w", err)
	}
	return events, nil
}

func (s *LocalStore) TestConnection(ctx context.Context) (bool, string) {
	if s.pool == nil {
		return false, "no database configured"
	}
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM local_events WHERE published`).Scan(&n)
	if err != nil {
		return false, fmt.Sprintf("query failed: %v", err)
	}
	return true, fmt.Sprintf("%d published local events", n)
}
