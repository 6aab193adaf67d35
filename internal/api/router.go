package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/audionotes/internal/api/handlers"
	"github.com/nikhilbhutani/audionotes/internal/api/middleware"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Notes   *notes.Service
	STT     stt.Provider
	Metrics *metrics.Metrics
	// Readiness checks by name; nil entries are skipped.
	Checks map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	rl   *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(rt.deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	if rt.cfg.Server.RateLimitRPS > 0 {
		rt.rl = middleware.NewRateLimiter(float64(rt.cfg.Server.RateLimitRPS), rt.cfg.Server.RateLimitBurst)
		r.Use(rt.rl.Limit)
	}

	// Health and metrics endpoints
	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The relay answers every method itself so wrong methods get its JSON 405.
		r.Handle("/transcribe", handlers.NewTranscribeHandler(
			rt.deps.STT, rt.cfg.STT.TempDir, rt.cfg.STT.MaxUploadBytes, rt.deps.Metrics,
		))

		noteH := handlers.NewNoteHandler(rt.deps.Notes, rt.cfg.STT.MaxUploadBytes)
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteH.List)
			r.Post("/", noteH.Create)
			r.Get("/{id}", noteH.Get)
			r.Delete("/{id}", noteH.Delete)
		})
	})

	return r
}

// Close releases background resources started by Setup.
func (rt *Router) Close() {
	if rt.rl != nil {
		rt.rl.Stop()
	}
}
