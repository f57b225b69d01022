package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
)

// maxPatchSize bounds editor request bodies
const maxPatchSize = 1 << 20

// openEditorRequest selects the resource an editor session edits.
// Without id the session creates a new resource.
type openEditorRequest struct {
	ID           string `json:"id"`
	CollectionID string `json:"collectionId"`
}

// sessionResponse is the state of an editor session
type sessionResponse struct {
	Session  string            `json:"session"`
	Kind     string            `json:"kind"`
	Editor   any               `json:"editor"`
	Navigate *navigateResponse `json:"navigate,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func (h *Handler) sessionResponse(id string, s session, err error) sessionResponse {
	return sessionResponse{
		Session:  id,
		Kind:     s.Kind(),
		Editor:   s.View(),
		Navigate: s.Navigation(),
		Errors:   apierror.ToErrorMap(err),
	}
}

// OpenEditor handles POST /api/editors/{kind}
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var req openEditorRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPatchSize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, badRequest(err, "invalid editor request"))
		return
	}

	s, ok := newSession(h.service, kind, req.ID, req.CollectionID)
	if !ok {
		h.respondError(w, &apierror.DomainError{Status: http.StatusNotFound, Message: "unknown editor kind " + kind})
		return
	}

	// a failed load is part of the view, the session stays usable
	if err := s.Mount(r.Context()); err != nil {
		h.logger.Debugw("editor mounted with errors",
			"kind", kind,
			"id", req.ID,
			"error", err.Error(),
		)
	}

	id := h.sessions.Put(s)
	h.logger.Debugw("editor session opened",
		"session", id,
		"kind", kind,
		"id", req.ID,
	)

	h.respondJSON(w, http.StatusCreated, h.sessionResponse(id, s, nil))
}

// GetEditor handles GET /api/editors/{session}
func (h *Handler) GetEditor(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	h.respondJSON(w, http.StatusOK, h.sessionResponse(id, s, nil))
}

// PatchEditor handles PATCH /api/editors/{session}. The body is merged
// into the draft, absent fields keep their values.
func (h *Handler) PatchEditor(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	patch, err := io.ReadAll(io.LimitReader(r.Body, maxPatchSize))
	if err != nil {
		h.respondError(w, badRequest(err, "failed to read patch"))
		return
	}

	if err := s.Patch(patch); err != nil {
		if !isEditorState(err) {
			err = badRequest(err, "invalid patch")
		}
		h.respondJSON(w, statusOf(err), h.sessionResponse(id, s, err))
		return
	}

	h.respondJSON(w, http.StatusOK, h.sessionResponse(id, s, nil))
}

// SaveEditor handles POST /api/editors/{session}/save
func (h *Handler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := s.Save(r.Context()); err != nil {
		h.respondJSON(w, statusOf(err), h.sessionResponse(id, s, err))
		return
	}

	h.finishSession(w, id, s)
}

// RemoveEditor handles POST /api/editors/{session}/remove
func (h *Handler) RemoveEditor(w http.ResponseWriter, r *http.Request) {
	id, s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := s.Remove(r.Context()); err != nil {
		h.respondJSON(w, statusOf(err), h.sessionResponse(id, s, err))
		return
	}

	// removing a resource that was never created leaves the session open
	if s.Navigation() == nil {
		h.respondJSON(w, http.StatusOK, h.sessionResponse(id, s, nil))
		return
	}

	h.finishSession(w, id, s)
}

// CloseEditor handles DELETE /api/editors/{session}
func (h *Handler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// finishSession answers with the final view and drops the session
func (h *Handler) finishSession(w http.ResponseWriter, id string, s session) {
	resp := h.sessionResponse(id, s, nil)
	h.sessions.Delete(id)
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (string, session, bool) {
	id := chi.URLParam(r, "session")

	s, ok := h.sessions.Get(id)
	if !ok {
		h.respondError(w, &apierror.DomainError{
			Status:  http.StatusNotFound,
			Message: "editor session not found or expired",
		})
		return "", nil, false
	}
	return id, s, true
}
