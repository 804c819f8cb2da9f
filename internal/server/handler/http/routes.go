package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/metrics"
	"github.com/atinyakov/habitxp/internal/middleware"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Catalog   *CatalogHandler
	Ledger    *LedgerHandler
	OneShot   *OneShotHandler
	Analytics *AnalyticsHandler
}

// NewRouter constructs the habitxp HTTP API.
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. metrics.InstrumentHandler        - Prometheus request metrics
//  3. AllowContentType("application/json") - rejects non-JSON bodies
//  4. WithRequestLogging(logger)       - one log line per request
//  5. Owner                            - resolves X-User-ID
//  6. limiter.Handler                  - per-owner rate limit (when limiter is set)
//
// GET /metrics serves the Prometheus registry; everything else lives
// under /api.
func NewRouter(h Handlers, limiter *middleware.RateLimiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.Owner)
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.Catalog.RegisterUser)
		r.Get("/stats", h.Analytics.UserStats)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", h.Catalog.ListHabits)
			r.Post("/", h.Catalog.CreateHabit)
			r.Get("/{id}/stats", h.Analytics.HabitStats)
			r.Get("/{id}/completions", h.Ledger.HabitCompletions)
		})

		r.Post("/categories", h.Catalog.CreateCategory)
		r.Get("/categories/xp", h.Analytics.CategoryXP)

		r.Route("/completions", func(r chi.Router) {
			r.Get("/", h.Ledger.ListCompletions)
			r.Post("/", h.Ledger.AddCompletion)
			r.Delete("/{id}", h.Ledger.RemoveCompletion)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.OneShot.ListGoals)
			r.Post("/", h.OneShot.CreateGoal)
			r.Post("/{id}/complete", h.OneShot.CompleteGoal)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.OneShot.ListTasks)
			r.Post("/", h.OneShot.CreateTask)
			r.Post("/{id}/complete", h.OneShot.CompleteTask)
		})

		r.Get("/insights/{year}/{month}", h.Analytics.MonthlyInsights)
		r.Get("/summary/{year}/{month}", h.Analytics.MonthlySummary)
		r.Get("/calendar/{year}/{month}", h.Analytics.Calendar)
	})

	return r
}
