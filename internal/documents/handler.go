package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stocklane/stocklane/internal/inventory"
	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/shared"
)

// Handler exposes the document workflow over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the documents handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers document routes under /{kind}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{kind}", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/validate", h.handleValidate)
		r.Post("/{id}/cancel", h.handleCancel)
		r.Post("/{id}/waiting", h.handleWaiting)
		r.Post("/{id}/ready", h.handleReady)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	var (
		doc any
		err error
	)
	switch kind {
	case KindReceipt:
		var req createReceiptRequest
		if !h.decode(w, r, &req) {
			return
		}
		doc, err = h.service.CreateReceipt(r.Context(), CreateReceiptInput{
			WarehouseID: req.WarehouseID,
			Note:        req.Note,
			Lines:       toLineInputs(req.Lines),
		})
	case KindDelivery:
		var req createDeliveryRequest
		if !h.decode(w, r, &req) {
			return
		}
		doc, err = h.service.CreateDelivery(r.Context(), CreateDeliveryInput{
			WarehouseID: req.WarehouseID,
			Note:        req.Note,
			Lines:       toLineInputs(req.Lines),
		})
	case KindTransfer:
		var req createTransferRequest
		if !h.decode(w, r, &req) {
			return
		}
		doc, err = h.service.CreateTransfer(r.Context(), CreateTransferInput{
			ProductID:         req.ProductID,
			Quantity:          req.Quantity,
			SourceWarehouseID: req.SourceWarehouseID,
			DestWarehouseID:   req.DestWarehouseID,
			Note:              req.Note,
		})
	case KindAdjustment:
		var req createAdjustmentRequest
		if !h.decode(w, r, &req) {
			return
		}
		doc, err = h.service.CreateAdjustment(r.Context(), CreateAdjustmentInput{
			ProductID:       req.ProductID,
			WarehouseID:     req.WarehouseID,
			CountedQuantity: req.CountedQuantity,
			Note:            req.Note,
		})
	}
	if err != nil {
		h.respondErr(w, "create document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := ListFilter{
		Status:  Status(q.Get("status")),
		Page:    queryInt(q.Get("page")),
		PerPage: queryInt(q.Get("per_page")),
	}
	var (
		data  any
		total int
		err   error
	)
	switch kind {
	case KindReceipt:
		data, total, err = h.service.ListReceipts(r.Context(), filter)
	case KindDelivery:
		data, total, err = h.service.ListDeliveries(r.Context(), filter)
	case KindTransfer:
		data, total, err = h.service.ListTransfers(r.Context(), filter)
	case KindAdjustment:
		data, total, err = h.service.ListAdjustments(r.Context(), filter)
	}
	if err != nil {
		h.respondErr(w, "list documents", err)
		return
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{
		Data:       data,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      pagination.Total,
		TotalPages: pagination.TotalPages,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.docParams(w, r)
	if !ok {
		return
	}
	doc, err := h.fetch(r, kind, id)
	if err != nil {
		h.respondErr(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.docParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Validate(r.Context(), kind, id); err != nil {
		h.respondErr(w, "validate document", err)
		return
	}
	doc, err := h.fetch(r, kind, id)
	if err != nil {
		h.respondErr(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Cancel)
}

func (h *Handler) handleWaiting(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.MarkWaiting)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.MarkReady)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, Kind, int64) error) {
	kind, id, ok := h.docParams(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), kind, id); err != nil {
		h.respondErr(w, "transition document", err)
		return
	}
	doc, err := h.fetch(r, kind, id)
	if err != nil {
		h.respondErr(w, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) fetch(r *http.Request, kind Kind, id int64) (any, error) {
	switch kind {
	case KindReceipt:
		return h.service.GetReceipt(r.Context(), id)
	case KindDelivery:
		return h.service.GetDelivery(r.Context(), id)
	case KindTransfer:
		return h.service.GetTransfer(r.Context(), id)
	case KindAdjustment:
		return h.service.GetAdjustment(r.Context(), id)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
}

func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	kind := Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown document kind")
		return "", false
	}
	return kind, true
}

func (h *Handler) docParams(w http.ResponseWriter, r *http.Request) (Kind, int64, bool) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
		return "", 0, false
	}
	return kind, id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request payload")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not found")
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrValidation), errors.Is(err, inventory.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func queryInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
