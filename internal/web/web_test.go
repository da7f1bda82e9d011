package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-hub/internal/aggregate"
	"event-hub/internal/cache"
	"event-hub/internal/debuglog"
	"event-hub/internal/model"
	"event-hub/internal/provider"
)

type stubProvider struct {
	name   string
	events []model.Event
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) FetchEvents(context.Context, provider.Query) []model.Event {
	return s.events
}
func (s *stubProvider) TestConnection(context.Context) (bool, string) {
	return true, "connection OK"
}

func newTestServer(events []model.Event) *httptest.Server {
	svc := aggregate.New(
		[]aggregate.Entry{{Provider: &stubProvider{name: "custom", events: events}, Enabled: true}},
		nil,
		cache.NewMemory(),
		debuglog.New(50),
		time.Hour,
		25, 20,
	)
	return httptest.NewServer(NewServer(svc).Handler())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleEvents(t *testing.T) {
	ts := newTestServer([]model.Event{
		{ID: "1", Source: model.SourceCustom, Title: "Jazz Night", Date: "2026-09-12"},
	})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events?location=Austin%2C+TX&limit=10")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[eventsResponse](t, resp)
	if len(body.Events) != 1 || body.Events[0].Title != "Jazz Night" {
		t.Fatalf("events = %+v", body.Events)
	}
	if body.Diagnostics == nil || len(body.Diagnostics.Sources) != 1 {
		t.Fatalf("diagnostics = %+v", body.Diagnostics)
	}
}

func TestHandleEventsMissingLocation(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleClearCache(t *testing.T) {
	ts := newTestServer([]model.Event{
		{ID: "1", Source: model.SourceCustom, Date: "2026-09-12"},
	})
	defer ts.Close()

	// Наполняем кэш через обычный запрос
	if _, err := http.Get(ts.URL + "/api/events?location=Austin"); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decode[map[string]int64](t, resp)
	if body["purged"] != 1 {
		t.Fatalf("purged = %d, want 1", body["purged"])
	}
}

func TestHandleDebugLog(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	if _, err := http.Get(ts.URL + "/api/events?location=Austin"); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/debug")
	if err != nil {
		t.Fatal(err)
	}
	body := decode[map[string][]string](t, resp)
	if len(body["entries"]) == 0 {
		t.Fatal("debug log empty after an aggregation run")
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/debug", nil)
	if resp, err := http.DefaultClient.Do(req); err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear debug: %v, status %d", err, resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/debug")
	if err != nil {
		t.Fatal(err)
	}
	body = decode[map[string][]string](t, resp)
	if len(body["entries"]) != 0 {
		t.Fatalf("debug log not cleared: %v", body["entries"])
	}
}

func TestHandleTestProviders(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/providers/test", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	body := decode[struct {
		Results []aggregate.ConnectionStatus `json:"results"`
	}](t, resp)
	if len(body.Results) != 1 || !body.Results[0].OK {
		t.Fatalf("results = %+v", body.Results)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
