package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pionia-project/pionia/internal/errors"
	"github.com/pionia-project/pionia/internal/crud"
	"github.com/pionia-project/pionia/internal/exporter"
	"github.com/pionia-project/pionia/internal/services"
)

const exportPageSize = 1000

// ExportHandler streams a CRUD service's records as a CSV or XLSX
// download. Only services backed by a table binding are exportable.
type ExportHandler struct {
	registry     *services.Registry
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler.
func NewExportHandler(registry *services.Registry, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		registry:     registry,
		logger:       logger.With(slog.String("handler", "export")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{service}", h.Export)
	return r
}

// Export handles GET /api/export/{service}?format=csv|xlsx&limit=N
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service")
	svc, ok := h.registry.Resolve(name)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFound("Service %q does not exist", name))
		return
	}

	crudSvc, ok := svc.(*crud.Service)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.InvalidData("Service %q has no table binding to export", name))
		return
	}

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidData("%v", err))
		return
	}

	limit := exportPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidData("Invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	table := crudSvc.Table()
	records, err := crudSvc.Store().List(r.Context(), table, nil, limit, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.Internal("Failed to fetch records for export", err))
		return
	}

	filename := fmt.Sprintf("%s.%s", table.Name, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.Export(w, table, records, format); err != nil {
		// Headers are already written; log instead of re-rendering.
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("service", name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}
