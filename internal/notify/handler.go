package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zaffran-mart/zaffran-mart/internal/platform/httpx"
)

// Handler exposes the notification feed over HTTP.
type Handler struct {
	feed *Feed
}

// NewHandler constructs the notifications handler.
func NewHandler(feed *Feed) *Handler {
	return &Handler{feed: feed}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/read-all", h.handleReadAll)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"notifications": h.feed.List(),
		"unread_count":  h.feed.UnreadCount(),
	})
}

func (h *Handler) handleReadAll(w http.ResponseWriter, r *http.Request) {
	h.feed.MarkAllRead()
	httpx.JSON(w, http.StatusOK, map[string]any{"unread_count": 0})
}
