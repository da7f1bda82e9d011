package provider

import (
	"context"

	"event-hub/internal/model"
)

// Query — параметры поиска событий
type Query struct {
	Location    string
	RadiusMiles int
	Limit       int
}

// Provider — общий контракт источника событий.
//
// FetchEvents никогда не возвращает ошибку для обычных сбоев: отсутствие
// ключа, сетевые проблемы, не-200 статус или кривой JSON логируются, а
// наружу уходит пустой список. Вызывающий код не различает "источник упал"
// и "источник ничего не нашёл".
type Provider interface {
	Name() string
	FetchEvents(ctx context.Context, q Query) []model.Event
	// TestConnection issues a minimal authenticated request and classifies
	// the outcome for diagnostics. Not part of the aggregation hot path.
	TestConnection(ctx context.Context) (bool, string)
}
