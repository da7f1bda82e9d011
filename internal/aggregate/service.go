package aggregate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"event-hub/internal/cache"
	"event-hub/internal/debuglog"
	"event-hub/internal/enrich"
	"event-hub/internal/metrics"
	"event-hub/internal/model"
	"event-hub/internal/provider"
)

// Entry — один источник с его конфигурационным состоянием. Note
// объясняет в диагностике, почему источник мог ничего не дать
// ("disabled in config", "missing credential", ...).
type Entry struct {
	Provider provider.Provider
	Enabled  bool
	Note     string
}

// Service — центр пайплайна: кэш → провайдеры → обогащение →
// сортировка → усечение → кэш.
type Service struct {
	entries  []Entry // фиксированный порядок: eventbrite, ticketmaster, custom
	enricher *enrich.Enricher
	store    cache.Store
	debug    *debuglog.Log
	ttl      time.Duration

	defaultRadius int
	defaultLimit  int
}

func New(entries []Entry, enricher *enrich.Enricher, store cache.Store,
	debug *debuglog.Log, ttl time.Duration, defaultRadius, defaultLimit int) *Service {
	if defaultRadius <= 0 {
		defaultRadius = 25
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Service{
		entries:       entries,
		enricher:      enricher,
		store:         store,
		debug:         debug,
		ttl:           ttl,
		defaultRadius: defaultRadius,
		defaultLimit:  defaultLimit,
	}
}

// GetEvents возвращает события для локации: сперва кэш, на промахе —
// параллельный опрос источников. Пустой список — это успех; Diagnostics
// объясняет, почему он мог оказаться пустым.
func (s *Service) GetEvents(ctx context.Context, location string, radiusMiles, limit int) (events []model.Event, diag *Diagnostics) {
	diag = &Diagnostics{}
	defer func() {
		// Неожиданная паника при форматировании/сериализации не должна
		// отдать наружу полусобранный список
		if r := recover(); r != nil {
			events = nil
			diag.Failure = internalFailure(r)
			s.debug.Logf("aggregate", "recovered: %s", diag.Failure)
		}
	}()

	if radiusMiles <= 0 {
		radiusMiles = s.defaultRadius
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	// Кэш первым делом
	if cached, err := s.store.Get(ctx, location); err != nil {
		// Недоступный кэш не блокирует агрегацию
		s.debug.Logf("cache", "read failed: %v", err)
	} else if len(cached) > 0 {
		metrics.CacheHits.Inc()
		diag.Cached = true
		s.debug.Logf("aggregate", "served %d events for %q from cache", len(cached), location)
		return truncate(sortByStart(cached), limit), diag
	}
	metrics.CacheMisses.Inc()

	all := s.fetchAll(ctx, provider.Query{
		Location:    location,
		RadiusMiles: radiusMiles,
		Limit:       limit,
	}, diag)
	s.debug.Logf("aggregate", "fetched %d events for %q", len(all), location)

	if s.enricher.Enabled() {
		all = s.enricher.Enrich(ctx, all)
	}

	all = truncate(sortByStart(all), limit)

	if len(all) == 0 {
		diag.Suggestions = s.suggestions()
		return all, diag
	}

	// Запись в кэш best-effort: события отдаются даже если она не удалась
	if err := s.store.Put(ctx, all, location, s.ttl); err != nil {
		s.debug.Logf("cache", "write failed: %v", err)
	}
	return all, diag
}

// fetchAll опрашивает включённые источники параллельно и склеивает
// результаты в фиксированном порядке источников.
func (s *Service) fetchAll(ctx context.Context, q provider.Query, diag *Diagnostics) []model.Event {
	results := make([][]model.Event, len(s.entries))

	var g errgroup.Group
	for i, en := range s.entries {
		if !en.Enabled {
			continue
		}
		i, en := i, en
		g.Go(func() error {
			// Паника внутри провайдера приравнивается к его сбою
			defer func() {
				if r := recover(); r != nil {
					s.debug.Logf(en.Provider.Name(), "panic during fetch: %v", r)
					results[i] = nil
				}
			}()
			results[i] = en.Provider.FetchEvents(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Event
	for i, en := range s.entries {
		status := SourceStatus{
			Source:  en.Provider.Name(),
			Enabled: en.Enabled,
			Note:    en.Note,
		}
		if en.Enabled {
			status.Events = len(results[i])
			all = append(all, results[i]...)
		}
		diag.Sources = append(diag.Sources, status)
	}
	return all
}

// CachedEvents отдаёт только живые записи кэша, свежие первыми.
func (s *Service) CachedEvents(ctx context.Context, location string) ([]model.Event, error) {
	return s.store.Get(ctx, location)
}

// ClearCache удаляет все записи кэша и возвращает их число.
func (s *Service) ClearCache(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeAll(ctx)
	if err == nil {
		metrics.CachePurged.WithLabelValues("all").Add(float64(n))
		s.debug.Logf("cache", "purged all: %d rows", n)
	}
	return n, err
}

// TestConnections прогоняет probe каждого источника (и выключенных тоже —
// оператору полезно видеть полную картину).
func (s *Service) TestConnections(ctx context.Context) []ConnectionStatus {
	out := make([]ConnectionStatus, 0, len(s.entries))
	for _, en := range s.entries {
		ok, msg := en.Provider.TestConnection(ctx)
		out = append(out, ConnectionStatus{
			Source:  en.Provider.Name(),
			Enabled: en.Enabled,
			OK:      ok,
			Message: msg,
		})
	}
	return out
}

func (s *Service) DebugLog() []string { return s.debug.Entries() }
func (s *Service) ClearDebugLog()     { s.debug.Clear() }

func (s *Service) suggestions() []string {
	anyEnabled := false
	missingCred := false
	for _, en := range s.entries {
		if en.Enabled {
			anyEnabled = true
			if en.Note != "" {
				missingCred = true
			}
		}
	}
	var out []string
	if !anyEnabled {
		out = append(out, "enable at least one event source")
	}
	if missingCred {
		out = append(out, "add the missing API credentials for the enabled sources")
	}
	if anyEnabled {
		out = append(out, "try a broader location or a larger radius")
	}
	out = append(out, "check the debug log for provider errors")
	return out
}

// sortByStart сортирует по возрастанию (дата, время); события без даты
// идут первыми. Стабильно, чтобы порядок источников не плавал.
func sortByStart(events []model.Event) []model.Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime().Before(events[j].StartTime())
	})
	return events
}

func truncate(events []model.Event, limit int) []model.Event {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}

// internalFailure formats a recovered panic with its origin for the
// structured failure payload.
func internalFailure(r any) string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		// Пропускаем кадры рантайма (gopanic и пр.) до места паники
		if frame.File != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("internal error: %v (%s:%d)", r, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return fmt.Sprintf("internal error: %v", r)
}
