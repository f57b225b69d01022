package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/cache"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/editor"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
)

// Options configures the console API
type Options struct {
	BasePath     string
	PollInterval time.Duration
	SessionTTL   time.Duration
	// Indicator drives the deferred loading indicator, nil reports the raw busy flag
	Indicator *signal.Deferred
}

// Handler holds the HTTP handlers and dependencies
type Handler struct {
	service      service.ConsoleService
	sessions     *cache.Store[session]
	indicator    *signal.Deferred
	pollInterval time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.SugaredLogger
	basePath     string
}

// NewHandler creates a new HTTP handler
func NewHandler(svc service.ConsoleService, opts Options, logger *zap.SugaredLogger) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}

	return &Handler{
		service:      svc,
		indicator:    opts.Indicator,
		pollInterval: opts.PollInterval,
		logger:       logger,
		basePath:     opts.BasePath,
		sessions: cache.New(opts.SessionTTL, func(id string, s session) {
			// the editor may still have a write in flight; it completes without touching the session
			s.Close()
			logger.Debugw("editor session closed", "session", id)
		}),
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(middleware.Recoverer)

	routesHandler := h.createRoutes()

	if h.basePath != "" {
		r.Mount(h.basePath, routesHandler)
	} else {
		r.Mount("/", routesHandler)
	}

	return r
}

// createRoutes creates the API and UI routes
func (h *Handler) createRoutes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/collections", h.ListCollections)
		r.Get("/variables", h.ListVariables)
		r.Get("/pending", h.GetPending)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Get("/stream", h.StreamJobs)
			r.Get("/{id}", h.GetJob)
			r.Post("/{id}/run", h.RunJob)
			r.Post("/{id}/stop", h.StopJob)
			r.Delete("/{id}/history", h.ClearJobHistory)
		})

		r.Route("/editors", func(r chi.Router) {
			r.Post("/{kind:collection|job|variable}", h.OpenEditor)
			r.Get("/{session}", h.GetEditor)
			r.Patch("/{session}", h.PatchEditor)
			r.Delete("/{session}", h.CloseEditor)
			r.Post("/{session}/save", h.SaveEditor)
			r.Post("/{session}/remove", h.RemoveEditor)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.respondError(w, &apierror.DomainError{Status: http.StatusNotFound, Message: "route not found"})
		})
	})

	// Serve UI (must be last to act as catch-all)
	r.HandleFunc("/*", h.ServeUI())

	return r
}

// loggingMiddleware logs HTTP requests once they completed
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// errorResponse represents an error response
type errorResponse struct {
	Errors map[string]string `json:"errors"`
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("failed to encode response", "error", err.Error())
	}
}

// respondError writes err as an error map with the status it maps to
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	h.respondJSON(w, statusOf(err), errorResponse{Errors: apierror.ToErrorMap(err)})
}

// statusOf picks the response status for err
func statusOf(err error) int {
	switch {
	case errors.Is(err, editor.ErrBusy), errors.Is(err, editor.ErrFinished):
		return http.StatusConflict
	case errors.Is(err, editor.ErrClosed):
		return http.StatusGone
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return apierror.HTTPStatus(err)
}

// isEditorState reports whether err comes from the editor lifecycle rather than the input
func isEditorState(err error) bool {
	return errors.Is(err, editor.ErrBusy) || errors.Is(err, editor.ErrFinished) || errors.Is(err, editor.ErrClosed)
}

// errBadRequest marks malformed console API requests
var errBadRequest = errors.New("bad request")

func badRequest(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), errBadRequest)
}
