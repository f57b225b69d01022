package api

import (
	"net/http"
)

// collectionFilter is the query parameter selecting one collection
const collectionFilter = "collectionId"

// pendingResponse is the state of the loading indicator
type pendingResponse struct {
	Busy    bool `json:"busy"`
	Visible bool `json:"visible"`
	Count   int  `json:"count"`
}

// ListCollections handles GET /api/collections
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListCollections(r.Context()))
}

// ListJobs handles GET /api/jobs?collectionId=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListJobs(r.Context(), r.URL.Query().Get(collectionFilter)))
}

// ListVariables handles GET /api/variables?collectionId=
func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListVariables(r.Context(), r.URL.Query().Get(collectionFilter)))
}

// GetPending handles GET /api/pending
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	pending := h.service.Pending()

	resp := pendingResponse{
		Busy:  pending.Busy.Get(),
		Count: pending.Count(),
	}
	if h.indicator != nil {
		resp.Visible = h.indicator.Visible.Get()
	} else {
		resp.Visible = resp.Busy
	}

	h.respondJSON(w, http.StatusOK, resp)
}
