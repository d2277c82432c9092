package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "hotparts/internal/errors"
	"hotparts/internal/infrastructure"
)

// OperationsHandler triggers rescans of the unprocessed directory and master exports
type OperationsHandler struct {
	rescanner    Rescanner
	exporter     Exporter
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler. Either collaborator
// may be nil, in which case its route answers 503.
func NewOperationsHandler(rescanner Rescanner, exporter Exporter, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *OperationsHandler {
	return &OperationsHandler{
		rescanner:    rescanner,
		exporter:     exporter,
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the operation routes to r
func (h *OperationsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rescan", h.Rescan)
	r.Post("/export", h.Export)
}

// Rescan handles POST /api/rescan
func (h *OperationsHandler) Rescan(w http.ResponseWriter, r *http.Request) {
	if h.rescanner == nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrServiceUnavailable)
		return
	}

	ctx, span := otel.Tracer(infrastructure.InstrumentationName).Start(r.Context(), "operations.rescan")
	defer span.End()

	queued, err := h.rescanner.Rescan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.errorHandler.HandleError(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("files.queued", queued))

	h.logger.InfoContext(ctx, "Rescan requested", slog.Int("queued", queued))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status": "accepted",
		"queued": queued,
	})
}

// Export handles POST /api/export
func (h *OperationsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrServiceUnavailable)
		return
	}

	ctx, span := otel.Tracer(infrastructure.InstrumentationName).Start(r.Context(), "operations.export")
	defer span.End()

	files, err := h.exporter.ExportAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Masters exported", slog.Int("files", len(files)))

	render.JSON(w, r, map[string]interface{}{
		"status": "exported",
		"files":  files,
	})
}
