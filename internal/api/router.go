package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

func NewRouter(svc *rating.Service, s store.Store, cfg config.ServerConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	weights := NewWeightsHandler(svc, logger)
	ratings := NewRatingsHandler(svc, logger)
	useCases := NewUseCasesHandler(s, svc, logger)
	processes := NewProcessesHandler(s, svc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/weights", weights.Compute)
		r.Get("/template", weights.Template)

		r.Post("/ratings", ratings.Rate)
		r.Get("/frontier", ratings.Frontier)

		r.Post("/usecases", useCases.Create)
		r.Get("/usecases", useCases.List)
		r.Get("/usecases/{id}", useCases.Get)
		r.Patch("/usecases/{id}", useCases.Update)
		r.Delete("/usecases/{id}", useCases.Delete)
		r.Post("/usecases/{id}/rate", useCases.Rate)
		r.Get("/usecases/{id}/explain", useCases.Explain)

		r.Post("/processes", processes.Create)
		r.Get("/processes", processes.List)
		r.Get("/processes/{id}", processes.Get)
		r.Put("/processes/{id}/weights", processes.SetWeights)
		r.Delete("/processes/{id}", processes.Delete)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminToken))
			r.Put("/template/judgments", weights.ReplaceJudgments)
			r.Post("/ratings/recompute", ratings.Recompute)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
