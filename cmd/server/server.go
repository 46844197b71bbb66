// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/codr1/padeldraw/internal/api"
	"github.com/codr1/padeldraw/internal/api/categories"
	"github.com/codr1/padeldraw/internal/api/matches"
	"github.com/codr1/padeldraw/internal/api/tournaments"
	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/config"
	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/live"
	"github.com/codr1/padeldraw/internal/metrics"
	"github.com/codr1/padeldraw/internal/ratelimit"
)

type application struct {
	server  *http.Server
	limiter *ratelimit.Limiter
}

// newServer builds the competition service and the HTTP server around it. m may be nil
// when metrics are disabled.
func newServer(cfg *config.Config, repo competition.Repository, hub *live.Hub, m *metrics.Metrics) (*application, error) {
	hours, err := draw.ParseDailyHours(cfg.Scheduling.DayStart, cfg.Scheduling.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("scheduling hours: %w", err)
	}

	opts := competition.Options{
		DurationAware:      cfg.Scheduling.DurationAware,
		DailyHours:         hours,
		QualifiersPerGroup: cfg.Bracket.QualifiersPerGroup,
	}
	if cfg.Features.EnableLive {
		opts.Notifier = hub
	}
	if m != nil {
		opts.Observer = m
	}
	svc := competition.NewService(repo, opts)

	categories.InitHandlers(svc)
	matches.InitHandlers(svc)
	tournaments.InitHandlers(svc)

	limiter := ratelimit.New(&ratelimit.Config{
		RequestsPerSecond: cfg.HTTP.RateLimitRPS,
		Burst:             cfg.HTTP.RateLimitBurst,
		TrustProxy:        cfg.HTTP.TrustProxy,
	})

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	registerRoutes(router, cfg, hub, m)

	// Setup middleware chain
	middlewares := []api.Middleware{
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithJSONContentType,
		limiter.Middleware,
	}
	if m != nil {
		middlewares = append(middlewares, m.Middleware)
	}
	handler := api.ChainMiddleware(router, middlewares...)

	return &application{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.App.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		limiter: limiter,
	}, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.HTTP.AllowedOrigins
}

func registerRoutes(r chi.Router, cfg *config.Config, hub *live.Hub, m *metrics.Metrics) {
	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories/{id}", func(r chi.Router) {
			r.Post("/create-groups", categories.HandleCreateGroups)
			r.Post("/auto-assign-teams", categories.HandleAutoAssignTeams)
			r.Put("/assignments", categories.HandleSetAssignments)
			r.Post("/generate-matches", categories.HandleGenerateMatches)
			r.Post("/advance-qualifiers", categories.HandleAdvanceQualifiers)
			r.Get("/standings", categories.HandleStandings)
			r.Get("/matches", categories.HandleListMatches)
			if cfg.Features.EnableLive {
				r.Get("/live", hub.Handler(allowedOrigins(cfg)))
			}
		})

		r.Patch("/matches/{id}", matches.HandlePatchMatch)

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Post("/schedule", tournaments.HandleSchedule)
			r.Get("/matches", tournaments.HandleListMatches)
		})
	})
}
