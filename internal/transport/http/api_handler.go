package http

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/pionia-project/pionia/internal/errors"
	"github.com/pionia-project/pionia/internal/middleware"
	"github.com/pionia-project/pionia/internal/services"
)

// APIHandler serves the single dispatch endpoint. Every service action
// is invoked through one POST route carrying the request envelope.
type APIHandler struct {
	dispatcher     *services.Dispatcher
	registry       *services.Registry
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewAPIHandler creates the dispatch endpoint handler.
func NewAPIHandler(dispatcher *services.Dispatcher, registry *services.Registry, logger *slog.Logger, maxUploadBytes int64) *APIHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &APIHandler{
		dispatcher:     dispatcher,
		registry:       registry,
		logger:         logger.With(slog.String("component", "api_handler")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the API routes.
func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Dispatch)
	r.Get("/services", h.ListServices)
	return r
}

// Dispatch handles POST /api/v1/. The body is either a JSON object or
// a multipart form; both must name a service and an action.
func (h *APIHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	payload, files, err := h.decode(r)
	if err != nil {
		h.respond(w, r, services.Fail(err))
		return
	}

	req := services.NewRequest(r.Context(), payload, files, middleware.IdentityFromContext(r.Context()))

	resp, err := h.dispatcher.Dispatch(req)
	if err != nil {
		h.respond(w, r, services.Fail(err))
		return
	}
	h.respond(w, r, resp)
}

// ListServices handles GET /api/v1/services, returning the registered
// service names.
func (h *APIHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, services.OK("Services retrieved successfully", h.registry.Names()))
}

// decode parses the request body into a payload map and files map.
func (h *APIHandler) decode(r *http.Request) (map[string]any, map[string][]*multipart.FileHeader, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, nil, apierrors.InvalidData("Invalid multipart form: %v", err)
		}
		payload := make(map[string]any, len(r.MultipartForm.Value))
		for k, v := range r.MultipartForm.Value {
			if len(v) == 1 {
				payload[k] = v[0]
			} else {
				payload[k] = v
			}
		}
		return payload, r.MultipartForm.File, nil
	}

	var payload map[string]any
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, h.maxUploadBytes))
	if err := decoder.Decode(&payload); err != nil {
		return nil, nil, apierrors.InvalidData("Invalid JSON body: %v", err)
	}
	return payload, nil, nil
}

func (h *APIHandler) respond(w http.ResponseWriter, r *http.Request, resp services.Response) {
	if err := render.Render(w, r, resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render response",
			slog.String("error", err.Error()))
	}
}
