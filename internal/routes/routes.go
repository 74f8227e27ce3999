package routes

import (
	"net/http"

	"github.com/templui/goalboard/internal/app"
	"github.com/templui/goalboard/internal/handler"
	"github.com/templui/goalboard/internal/metrics"
	"github.com/templui/goalboard/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	goal := handler.NewGoalHandler(app.GoalService)
	dashboard := handler.NewDashboardHandler(app.GoalService)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// ============================================================================
	// GOALS API (/api/owners/{owner}/*)
	// ============================================================================

	// Collection
	mux.HandleFunc("GET /api/owners/{owner}/goals", goal.List)
	mux.HandleFunc("POST /api/owners/{owner}/goals", goal.Create)
	mux.HandleFunc("PATCH /api/owners/{owner}/goals/{id}", goal.Update)
	mux.HandleFunc("DELETE /api/owners/{owner}/goals/{id}", goal.Delete)
	mux.HandleFunc("POST /api/owners/{owner}/goals/{id}/participate", goal.Participate)
	mux.HandleFunc("GET /api/owners/{owner}/goals/{id}/participations", goal.Participations)
	mux.HandleFunc("PUT /api/owners/{owner}/goals/pins", goal.PersistPins)

	// Views
	mux.HandleFunc("GET /api/owners/{owner}/board", dashboard.Board)
	mux.HandleFunc("GET /api/owners/{owner}/dashboard", dashboard.Dashboard)
	mux.HandleFunc("GET /api/owners/{owner}/friends/goals", goal.FriendsGoals)

	// Export
	mux.HandleFunc("GET /api/owners/{owner}/goals/export", goal.Export)
	mux.HandleFunc("POST /api/owners/{owner}/goals/export/archive", goal.Archive)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.RateLimitMutations(app.RateLimiter),
		middleware.Metrics, // Must stay last so it sees the matched route pattern
	)

	return handler
}
