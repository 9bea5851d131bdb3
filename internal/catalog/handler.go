package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zaffran-mart/zaffran-mart/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleList)
	r.Post("/products", h.handleAdd)
	r.Put("/products/{id}", h.handleUpdate)
	r.Delete("/products/{id}", h.handleDelete)
	r.Post("/products/{id}/stock", h.handleAdjust)
	r.Post("/products/{id}/availability", h.handleToggle)
	r.Post("/stock/validate", h.handleValidate)
	r.Get("/inventory/logs", h.handleLogs)
}

type productRequest struct {
	ID                string  `json:"id"`
	Name              string  `json:"name" validate:"required"`
	Category          string  `json:"category" validate:"required"`
	Price             float64 `json:"price" validate:"gte=0"`
	CostPrice         float64 `json:"cost_price" validate:"gte=0"`
	Unit              string  `json:"unit"`
	Quantity          int     `json:"quantity" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"gte=0"`
}

type adjustRequest struct {
	Quantity int    `json:"quantity" validate:"gte=0"`
	Reason   string `json:"reason"`
	Actor    string `json:"actor"`
}

type toggleRequest struct {
	Reason string `json:"reason"`
}

type validateRequest struct {
	Items []Item `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.List(r.Context()))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.AddProduct(r.Context(), Product{
		ID:                req.ID,
		Name:              req.Name,
		Category:          req.Category,
		Price:             req.Price,
		CostPrice:         req.CostPrice,
		Unit:              req.Unit,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		h.respondError(w, r, "add product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), Product{
		ID:                chi.URLParam(r, "id"),
		Name:              req.Name,
		Category:          req.Category,
		Price:             req.Price,
		CostPrice:         req.CostPrice,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		h.respondError(w, r, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.AdjustQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.Reason, req.Actor)
	if err != nil {
		h.respondError(w, r, "adjust quantity", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	product, err := h.service.ToggleAvailability(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.respondError(w, r, "toggle availability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	valid, errs := h.service.ValidateStock(r.Context(), req.Items)
	httpx.JSON(w, http.StatusOK, map[string]any{"valid": valid, "errors": errs})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	httpx.JSON(w, http.StatusOK, h.service.ListLogs(r.Context(), limit))
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &insufficient):
		httpx.ProblemWithErrors(w, http.StatusUnprocessableEntity, "Insufficient Stock", "one or more items cannot be fulfilled", insufficient.Items)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
