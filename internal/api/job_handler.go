package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetJob handles GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.GetJobDetail(r.Context(), chi.URLParam(r, "id")))
}

// RunJob handles POST /api/jobs/{id}/run. If-Match carries the status ETag.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	h.setRunning(w, r, true)
}

// StopJob handles POST /api/jobs/{id}/stop. If-Match carries the status ETag.
func (h *Handler) StopJob(w http.ResponseWriter, r *http.Request) {
	h.setRunning(w, r, false)
}

func (h *Handler) setRunning(w http.ResponseWriter, r *http.Request, running bool) {
	id := chi.URLParam(r, "id")

	if err := h.service.SetJobRunning(r.Context(), id, running, r.Header.Get("If-Match")); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.service.GetJobDetail(r.Context(), id))
}

// ClearJobHistory handles DELETE /api/jobs/{id}/history
func (h *Handler) ClearJobHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearJobHistory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
