package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "hotparts/internal/errors"
	"hotparts/internal/middleware"
	"hotparts/internal/services"
	"hotparts/pkg/contracts/domain"
)

type kindCtxKey struct{}

// QueryHandler serves the masters, statistics and summaries
type QueryHandler struct {
	service      QueryServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service QueryServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *QueryHandler {
	return &QueryHandler{
		service:      service,
		validator:    middleware.NewValidator(),
		logger:       logger.With(slog.String("component", "query_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the query routes to r
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.GetStats)
	r.Get("/parts/random", h.GetRandomParts)
	r.Get("/processing-log", h.GetProcessingLog)

	r.With(h.KindCtx).Get("/masters/{kind}", h.GetMasters)
	r.With(h.KindCtx).Get("/summary/{kind}", h.GetSummary)
}

// KindCtx resolves the {kind} URL parameter to a collection
func (h *QueryHandler) KindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "kind")
		kind, err := domain.ParseKind(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NotFoundError("collection "+raw))
			return
		}
		ctx := context.WithValue(r.Context(), kindCtxKey{}, kind)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func kindFrom(r *http.Request) domain.Kind {
	kind, _ := r.Context().Value(kindCtxKey{}).(domain.Kind)
	return kind
}

// GetStats handles GET /api/stats
func (h *QueryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// GetMasters handles GET /api/masters/{kind}?mpn=
func (h *QueryHandler) GetMasters(w http.ResponseWriter, r *http.Request) {
	kind := kindFrom(r)
	mpn := strings.TrimSpace(r.URL.Query().Get("mpn"))

	records, err := h.service.Masters(r.Context(), kind, mpn)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	render.JSON(w, r, map[string]interface{}{
		"kind":    kind,
		"mpn":     mpn,
		"count":   len(records),
		"records": records,
	})
}

// GetSummary handles GET /api/summary/{kind}
func (h *QueryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	kind := kindFrom(r)

	items, err := h.service.Summary(r.Context(), kind)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"kind":  kind,
		"items": items,
	})
}

// GetRandomParts handles GET /api/parts/random?count=&min_price=&max_manufacturers=
func (h *QueryHandler) GetRandomParts(w http.ResponseWriter, r *http.Request) {
	q := services.DefaultRandomPartsQuery()

	var err error
	if q.Count, err = middleware.QueryInt(r, "count", q.Count); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.MinPrice, err = middleware.QueryFloat(r, "min_price", q.MinPrice); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.MaxManufacturers, err = middleware.QueryInt(r, "max_manufacturers", q.MaxManufacturers); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	parts, err := h.service.RandomParts(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if parts == nil {
		parts = []domain.MatchRecord{}
	}

	render.JSON(w, r, map[string]interface{}{
		"query": q,
		"count": len(parts),
		"parts": parts,
	})
}

// GetProcessingLog handles GET /api/processing-log?limit=
func (h *QueryHandler) GetProcessingLog(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", services.DefaultLogLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if limit < 1 || limit > 1000 {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("limit", "limit must be between 1 and 1000"))
		return
	}

	entries, err := h.service.ProcessingLog(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.ProcessingLog{}
	}

	render.JSON(w, r, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}
