package handler

import (
	"net/http"

	"github.com/templui/goalboard/internal/service"
)

type DashboardHandler struct {
	goalService *service.GoalService
}

func NewDashboardHandler(goalService *service.GoalService) *DashboardHandler {
	return &DashboardHandler{
		goalService: goalService,
	}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.goalService.Dashboard(r.Context(), r.PathValue("owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// Board returns the collection split into the new, in progress and completed buckets.
func (h *DashboardHandler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.goalService.Board(r.Context(), r.PathValue("owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, board)
}
