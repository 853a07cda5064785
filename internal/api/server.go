// Package api exposes branches, records, the dashboard and the map over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/branch-risk/internal/config"
	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/store"
)

// Default response cache sizing.
const (
	defaultCacheEntries = 64
	defaultCacheTTL     = 30 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	store store.Store
	dash  *dashboard.Service
	cache *ResponseCache
	cfg   config.ServerConfig
}

// Option configures a Server.
type Option func(*Server)

// WithCache replaces the default response cache.
func WithCache(c *ResponseCache) Option {
	return func(s *Server) { s.cache = c }
}

// New creates a Server over st.
func New(st store.Store, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		store: st,
		dash:  dashboard.New(st),
		cache: NewResponseCache(defaultCacheEntries, defaultCacheTTL),
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops cached dashboard and map responses.
func (s *Server) Invalidate() {
	s.cache.Purge()
}

// CacheStats reports response cache effectiveness.
func (s *Server) CacheStats() CacheStats {
	return s.cache.Stats()
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Cache", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))

		r.Get("/dashboard", s.getDashboard)
		r.Get("/map", s.getMap)
		r.Get("/map/nearby", s.getNearby)

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", s.listBranches)
			r.Post("/", s.createBranch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getBranch)
				r.Put("/", s.updateBranch)
				r.Delete("/", s.deleteBranch)
				r.Get("/records", s.listRecords)
				r.Post("/records", s.createRecord)
			})
		})

		r.Route("/records/{id}", func(r chi.Router) {
			r.Get("/", s.getRecord)
			r.Put("/", s.updateRecord)
			r.Delete("/", s.deleteRecord)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveCached answers from the response cache, or renders, stores and
// writes a fresh body.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, contentType string, render func(ctx context.Context) ([]byte, error)) {
	key := r.URL.RequestURI()
	if body := s.cache.Get(key); body != nil {
		w.Header().Set("X-Cache", "hit")
		writeRaw(w, contentType, body)
		return
	}

	gen := s.cache.Generation()
	body, err := render(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cache.PutIf(key, body, gen)
	w.Header().Set("X-Cache", "miss")
	writeRaw(w, contentType, body)
}

func marshalJSON(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "api: marshal response")
	}
	return append(body, '\n'), nil
}
