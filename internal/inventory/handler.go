package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/shared"
)

// Handler wires HTTP endpoints for the stock read model.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/levels", h.handleLevels)
	r.Get("/movements", h.handleMovements)
	r.Get("/low", h.handleLowStock)
	r.Get("/reconciliation", h.handleReconciliation)
}

func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := LevelFilter{
		ProductID:   queryInt64(q.Get("product_id")),
		WarehouseID: queryInt64(q.Get("warehouse_id")),
		Page:        int(queryInt64(q.Get("page"))),
		PerPage:     int(queryInt64(q.Get("per_page"))),
	}
	levels, total, err := h.service.Levels(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock levels", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{
		Data:       levels,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      pagination.Total,
		TotalPages: pagination.TotalPages,
	})
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{
		ProductID:   queryInt64(q.Get("product_id")),
		WarehouseID: queryInt64(q.Get("warehouse_id")),
		Limit:       int(queryInt64(q.Get("limit"))),
	}
	if filter.ProductID == 0 || filter.WarehouseID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id and warehouse_id are required")
		return
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date")
			return
		}
		// End of day inclusive.
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	movements, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	limit := int(queryInt64(r.URL.Query().Get("limit")))
	rows, err := h.service.LowStock(r.Context(), limit)
	if err != nil {
		h.logger.Error("list low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.logger.Error("reconcile stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"mismatched": len(rows),
		"pairs":      rows,
	})
}

func queryInt64(raw string) int64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
