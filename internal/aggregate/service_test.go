package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"event-hub/internal/cache"
	"event-hub/internal/debuglog"
	"event-hub/internal/model"
	"event-hub/internal/provider"
)

// stubProvider — управляемый источник для тестов сервиса
type stubProvider struct {
	name    string
	events  []model.Event
	calls   atomic.Int64
	panicOn bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FetchEvents(_ context.Context, _ provider.Query) []model.Event {
	s.calls.Add(1)
	if s.panicOn {
		panic("provider exploded")
	}
	return s.events
}

func (s *stubProvider) TestConnection(context.Context) (bool, string) {
	return true, "stub"
}

// failingStore имитирует недоступный бэкенд кэша
type failingStore struct{}

func (failingStore) Put(context.Context, []model.Event, string, time.Duration) error {
	return errors.New("storage unavailable")
}
func (failingStore) Get(context.Context, string) ([]model.Event, error) {
	return nil, errors.New("storage unavailable")
}
func (failingStore) PurgeAll(context.Context) (int64, error) {
	return 0, errors.New("storage unavailable")
}
func (failingStore) PurgeExpired(context.Context) (int64, error) {
	return 0, errors.New("storage unavailable")
}

func dateIn(days int) string {
	return time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour).Format("2006-01-02")
}

func newService(entries []Entry, store cache.Store) *Service {
	if store == nil {
		store = cache.NewMemory()
	}
	return New(entries, nil, store, debuglog.New(50), time.Hour, 25, 20)
}

func TestGetEventsSortedByDate(t *testing.T) {
	p := &stubProvider{name: "custom", events: []model.Event{
		{ID: "late", Source: model.SourceCustom, Date: dateIn(10)},
		{ID: "undated", Source: model.SourceCustom, Date: ""},
		{ID: "soon", Source: model.SourceCustom, Date: dateIn(1), Time: "09:00"},
		{ID: "soon-later", Source: model.SourceCustom, Date: dateIn(1), Time: "18:00"},
	}}
	svc := newService([]Entry{{Provider: p, Enabled: true}}, nil)

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if diag.Failure != "" {
		t.Fatalf("unexpected failure: %s", diag.Failure)
	}
	got := make([]string, len(events))
	for i, e := range events {
		got[i] = e.ID
	}
	want := []string{"undated", "soon", "soon-later", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestGetEventsRespectsLimit(t *testing.T) {
	var events []model.Event
	for i := 0; i < 30; i++ {
		events = append(events, model.Event{
			ID: string(rune('a' + i)), Source: model.SourceCustom, Date: dateIn(i),
		})
	}
	p := &stubProvider{name: "custom", events: events}
	svc := newService([]Entry{{Provider: p, Enabled: true}}, nil)

	got, _ := svc.GetEvents(context.Background(), "Austin, TX", 25, 5)
	if len(got) != 5 {
		t.Fatalf("got %d events, want 5", len(got))
	}
}

func TestGetEventsAllSourcesDisabled(t *testing.T) {
	entries := []Entry{
		{Provider: &stubProvider{name: "eventbrite"}, Enabled: false, Note: "disabled in config"},
		{Provider: &stubProvider{name: "ticketmaster"}, Enabled: false, Note: "disabled in config"},
		{Provider: &stubProvider{name: "custom"}, Enabled: false, Note: "disabled in config"},
	}
	svc := newService(entries, nil)

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 0, 0)
	if diag.Failure != "" {
		t.Fatalf("all-disabled run must not fail: %s", diag.Failure)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events", len(events))
	}
	if len(diag.Sources) != 3 {
		t.Fatalf("diagnostics cover %d sources", len(diag.Sources))
	}
	found := false
	for _, s := range diag.Suggestions {
		if s == "enable at least one event source" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing suggestion, got %v", diag.Suggestions)
	}
}

func TestGetEventsCacheFirst(t *testing.T) {
	p := &stubProvider{name: "custom", events: []model.Event{
		{ID: "1", Source: model.SourceCustom, Date: dateIn(2)},
	}}
	svc := newService([]Entry{{Provider: p, Enabled: true}}, nil)

	ctx := context.Background()
	first, diag := svc.GetEvents(ctx, "Austin, TX", 25, 10)
	if diag.Cached {
		t.Fatal("first call must miss the cache")
	}
	if len(first) != 1 {
		t.Fatalf("first call got %d events", len(first))
	}

	second, diag := svc.GetEvents(ctx, "Austin, TX", 25, 10)
	if !diag.Cached {
		t.Fatal("second call must hit the cache")
	}
	if len(second) != 1 || second[0].ID != "1" {
		t.Fatalf("cached result = %+v", second)
	}
	if p.calls.Load() != 1 {
		t.Fatalf("provider called %d times, want 1", p.calls.Load())
	}

	// После очистки кэша снова идём к провайдерам
	if n, err := svc.ClearCache(ctx); err != nil || n != 1 {
		t.Fatalf("ClearCache = (%d, %v)", n, err)
	}
	_, diag = svc.GetEvents(ctx, "Austin, TX", 25, 10)
	if diag.Cached {
		t.Fatal("call after purge must miss the cache")
	}
	if p.calls.Load() != 2 {
		t.Fatalf("provider called %d times, want 2", p.calls.Load())
	}
}

func TestGetEventsConcatenatesSources(t *testing.T) {
	eb := &stubProvider{name: "eventbrite", events: []model.Event{
		{ID: "e1", Source: model.SourceEventbrite, Date: dateIn(1)},
	}}
	tm := &stubProvider{name: "ticketmaster", events: []model.Event{
		{ID: "t1", Source: model.SourceTicketmaster, Date: dateIn(2)},
	}}
	local := &stubProvider{name: "custom", events: []model.Event{
		{ID: "c1", Source: model.SourceCustom, Date: dateIn(3)},
	}}
	svc := newService([]Entry{
		{Provider: eb, Enabled: true},
		{Provider: tm, Enabled: true},
		{Provider: local, Enabled: true},
	}, nil)

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, s := range diag.Sources {
		if s.Events != 1 {
			t.Errorf("source %s reported %d events", s.Source, s.Events)
		}
	}
}

func TestGetEventsProviderPanicIsolated(t *testing.T) {
	bad := &stubProvider{name: "eventbrite", panicOn: true}
	good := &stubProvider{name: "custom", events: []model.Event{
		{ID: "c1", Source: model.SourceCustom, Date: dateIn(1)},
	}}
	svc := newService([]Entry{
		{Provider: bad, Enabled: true},
		{Provider: good, Enabled: true},
	}, nil)

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if diag.Failure != "" {
		t.Fatalf("panicking provider must not fail the run: %s", diag.Failure)
	}
	if len(events) != 1 || events[0].ID != "c1" {
		t.Fatalf("got %+v", events)
	}
}

func TestGetEventsStoreFailureStillReturnsEvents(t *testing.T) {
	p := &stubProvider{name: "custom", events: []model.Event{
		{ID: "1", Source: model.SourceCustom, Date: dateIn(1)},
	}}
	svc := newService([]Entry{{Provider: p, Enabled: true}}, failingStore{})

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if diag.Failure != "" {
		t.Fatalf("cache failure must not fail the run: %s", diag.Failure)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events despite fresh fetch", len(events))
	}
}

// Включён только локальный источник: два события, сегодняшнее первым
func TestGetEventsCustomOnlyEndToEnd(t *testing.T) {
	local := &stubProvider{name: "custom", events: []model.Event{
		{ID: "later", Source: model.SourceCustom, Title: "In ten days", Date: dateIn(10)},
		{ID: "today", Source: model.SourceCustom, Title: "Today", Date: dateIn(0)},
	}}
	svc := newService([]Entry{
		{Provider: &stubProvider{name: "eventbrite"}, Enabled: false, Note: "disabled in config"},
		{Provider: &stubProvider{name: "ticketmaster"}, Enabled: false, Note: "disabled in config"},
		{Provider: local, Enabled: true},
	}, nil)

	events, diag := svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if diag.Failure != "" {
		t.Fatalf("failure: %s", diag.Failure)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "today" || events[1].ID != "later" {
		t.Fatalf("order = %s, %s", events[0].ID, events[1].ID)
	}
}

func TestDebugLogRoundTrip(t *testing.T) {
	p := &stubProvider{name: "custom", events: nil}
	svc := newService([]Entry{{Provider: p, Enabled: true}}, nil)

	svc.GetEvents(context.Background(), "Austin, TX", 25, 10)
	if len(svc.DebugLog()) == 0 {
		t.Fatal("debug log empty after a provider run")
	}
	svc.ClearDebugLog()
	if len(svc.DebugLog()) != 0 {
		t.Fatal("debug log not cleared")
	}
}
