package cache

import (
	"context"
	"time"

	"event-hub/internal/model"
)

// Store хранит нормализованные события с меткой локации и сроком жизни.
//
// Ключ записи — пара (event_id, source); Put перезаписывает запись по
// ключу независимо от её прежнего срока (свежий прогон агрегации всегда
// выигрывает). Get не возвращает протухшие записи, но и не удаляет их:
// чистка — отдельная фоновая операция PurgeExpired.
type Store interface {
	Put(ctx context.Context, events []model.Event, locationTag string, ttl time.Duration) error
	Get(ctx context.Context, locationTag string) ([]model.Event, error)
	PurgeAll(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
}
