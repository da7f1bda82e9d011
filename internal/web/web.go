package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"event-hub/internal/aggregate"
	"event-hub/internal/model"
)

// Server — JSON API поверх агрегационного сервиса. Наружу уходят либо
// события с диагностикой, либо {"error": ...}; стектрейсов здесь не бывает.
type Server struct {
	svc *aggregate.Service
	mux *http.ServeMux
}

func NewServer(svc *aggregate.Service) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events/cached", s.handleCachedEvents)
	s.mux.HandleFunc("DELETE /api/cache", s.handleClearCache)
	s.mux.HandleFunc("GET /api/debug", s.handleDebugLog)
	s.mux.HandleFunc("DELETE /api/debug", s.handleClearDebugLog)
	s.mux.HandleFunc("POST /api/providers/test", s.handleTestProviders)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

type eventsResponse struct {
	Events      []model.Event          `json:"events"`
	Diagnostics *aggregate.Diagnostics `json:"diagnostics,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}
	radius := intParam(q.Get("radius"))
	limit := intParam(q.Get("limit"))

	events, diag := s.svc.GetEvents(r.Context(), location, radius, limit)
	if diag.Failure != "" {
		writeError(w, http.StatusInternalServerError, diag.Failure)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Diagnostics: diag})
}

func (s *Server) handleCachedEvents(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	events, err := s.svc.CachedEvents(r.Context(), location)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache read failed")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ClearCache(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache purge failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

func (s *Server) handleDebugLog(w http.ResponseWriter, _ *http.Request) {
	entries := s.svc.DebugLog()
	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"entries": entries})
}

func (s *Server) handleClearDebugLog(w http.ResponseWriter, _ *http.Request) {
	s.svc.ClearDebugLog()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTestProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"results": s.svc.TestConnections(r.Context()),
	})
}

func intParam(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
