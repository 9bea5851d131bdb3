package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/notify"
	"github.com/zaffran-mart/zaffran-mart/internal/observability"
	"github.com/zaffran-mart/zaffran-mart/internal/orders"
	"github.com/zaffran-mart/zaffran-mart/internal/store"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	CatalogHandler *catalog.Handler
	OrdersHandler  *orders.Handler
	StoreHandler   *store.Handler
	NotifyHandler  *notify.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with martd defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.CatalogHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.StoreHandler.MountRoutes(r)
		if params.NotifyHandler != nil {
			params.NotifyHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
