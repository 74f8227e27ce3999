package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// List returns the owner's collection. ?sort= picks a repository order;
// the default is creation order.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	goals, err := h.goalService.SortedGoals(r.Context(), ownerID, r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	var draft model.GoalDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	goals, err := h.goalService.Create(r.Context(), ownerID, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, goals)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")
	goalID := r.PathValue("id")

	var patch model.GoalPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	goals, err := h.goalService.Update(r.Context(), ownerID, goalID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, goals)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")
	goalID := r.PathValue("id")

	goals, err := h.goalService.Delete(r.Context(), ownerID, goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, goals)
}

func (h *GoalHandler) Participate(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")
	goalID := r.PathValue("id")

	goals, err := h.goalService.Participate(r.Context(), ownerID, goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, goals)
}

func (h *GoalHandler) Participations(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")
	goalID := r.PathValue("id")

	participations, err := h.goalService.Participations(r.Context(), ownerID, goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, participations)
}

// PersistPins stores a complete pin batch.
func (h *GoalHandler) PersistPins(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	var batch []model.Goal
	if !decodeJSON(w, r, &batch) {
		return
	}

	goals, err := h.goalService.PersistPinBatch(r.Context(), ownerID, batch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, goals)
}

func (h *GoalHandler) FriendsGoals(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	feed, err := h.goalService.FriendsGoals(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, feed)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	export, err := h.goalService.Export(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=goals-export.json")

	err = json.NewEncoder(w).Encode(export)
	if err != nil {
		slog.Error("failed to encode goals", "error", err, "owner_id", ownerID)
	}
}

// ArchiveResponse carries the temporary download link for an archived export.
type ArchiveResponse struct {
	URL string `json:"url"`
}

func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("owner")

	url, err := h.goalService.Archive(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, ArchiveResponse{URL: url})
}
