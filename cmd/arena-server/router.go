package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"agent-arena/internal/config"
	"agent-arena/internal/querytools"
	"agent-arena/internal/store"
	"agent-arena/internal/tournament"
)

func newRouter(st tournament.Store, pg *store.Postgres, cfg config.ServerConfig, defaults config.TournamentConfig, manager *tournament.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(pg))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())

		r.Get("/public/runs", listRunsHandler(st))
		r.Get("/public/runs/{run_id}", getRunHandler(st))
		r.Get("/public/runs/{run_id}/hands/{hand_no}", getHandHandler(st))
		r.Get("/public/runs/{run_id}/events", eventsHandler(st, manager))

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/admin/runs", startRunHandler(manager, defaults))
			r.Post("/admin/runs/resume", resumeRunHandler(manager))
		})
	})

	r.Mount("/mcp", querytools.New(st).Handler())
	return r
}

func healthHandler(pg *store.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pg != nil {
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "memory"})
	}
}
