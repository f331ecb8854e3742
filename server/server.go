// Package server exposes the dataset over HTTP: a direct parameterized-query
// surface and the natural-language assistant endpoint.
//
// Routing stays on the stdlib mux (Go 1.22 method/path patterns); request
// parsing is deliberately thin, with all query semantics behind the registry.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dparolin/dommyhoops/assistant"
	"github.com/dparolin/dommyhoops/cache"
	"github.com/dparolin/dommyhoops/storage"
	"github.com/dparolin/dommyhoops/tools"
)

// Config wires the server's collaborators.
type Config struct {
	Registry  *tools.Registry
	Assistant *assistant.Assistant
	Cache     *cache.Cache
	// Sessions is optional; chat requests carrying a session_id fail with
	// 400 when it is nil.
	Sessions storage.SessionStore
	Logger   *zap.Logger
	// RequestTimeout bounds each request end to end, covering completion
	// and engine waits. Defaults to 60s.
	RequestTimeout time.Duration
}

// Server handles HTTP requests. Each request is independent; shared state
// lives in the cache and registry, which are safe for concurrent use.
type Server struct {
	registry  *tools.Registry
	assistant *assistant.Assistant
	cache     *cache.Cache
	sessions  storage.SessionStore
	logger    *zap.Logger
	timeout   time.Duration
}

// New returns the fully-routed HTTP handler.
func New(cfg Config) http.Handler {
	s := &Server{
		registry:  cfg.Registry,
		assistant: cfg.Assistant,
		cache:     cfg.Cache,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
		timeout:   cfg.RequestTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/teams/{team}/overview", s.directTool("team_overview", pathArg("team")))
	mux.HandleFunc("GET /api/teams/{team}/roster", s.directTool("team_roster", pathArg("team")))
	mux.HandleFunc("GET /api/teams/{team}/schedule", s.directTool("team_schedule", pathArg("team")))
	mux.HandleFunc("GET /api/players/{player}/season", s.directTool("player_season_stats", pathArg("player")))
	mux.HandleFunc("GET /api/players/search", s.directTool("player_search", queryArg("query", "q")))
	mux.HandleFunc("GET /api/leaderboard", s.directTool("stat_leaderboard", queryArg("stat", "stat"), limitArg()))
	mux.HandleFunc("GET /api/standings", s.directTool("standings", queryArg("conference", "conference")))

	return s.withRequestID(s.withLogging(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

// errorBody is the uniform error payload.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

type ctxKey int

const requestIDKey ctxKey = 0

// withRequestID tags every request with a UUID, echoed in X-Request-ID.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
