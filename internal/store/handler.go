package store

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zaffran-mart/zaffran-mart/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the store module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the store handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers store routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/store", h.handleInfo)
	r.Post("/store/toggle", h.handleToggle)
	r.Post("/store/force", h.handleForce)
	r.Put("/store/schedule", h.handleSchedule)
	r.Get("/store/logs", h.handleLogs)
}

type toggleRequest struct {
	Reason     string     `json:"reason"`
	ReasonType ReasonType `json:"reason_type"`
}

type forceRequest struct {
	IsOpen bool   `json:"is_open"`
	Reason string `json:"reason"`
	Actor  string `json:"actor" validate:"required"`
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Info(r.Context()))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Toggle(r.Context(), req.Reason, req.ReasonType))
}

func (h *Handler) handleForce(w http.ResponseWriter, r *http.Request) {
	var req forceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Force(r.Context(), req.IsOpen, req.Reason, req.Actor))
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req Schedule
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	info, err := h.service.UpdateSchedule(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidSchedule) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update schedule", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, info)
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
	httpx.JSON(w, http.StatusOK, h.service.Logs(r.Context(), limit))
}
