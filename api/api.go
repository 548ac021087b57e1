package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sksmith/stock-ledger/config"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/core/user"
)

const (
	ApiPath       = "/api/v1"
	InventoryPath = "/inventory"
	OrderPath     = "/orders"
	UserPath      = "/user"
)

// CtxKey namespaces the values this package stores on a request context.
type CtxKey string

func ConfigureRouter(cfg *config.Config, invSvc inventory.Service, userService user.Service) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(LoggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("UP"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/env", NewEnvApi(cfg).ConfigureRouter)

	r.With(Authenticate(userService)).Route(ApiPath, func(r chi.Router) {
		r.Route(InventoryPath, NewInventoryApi(invSvc).ConfigureRouter)
		r.Route(OrderPath, NewOrderApi(invSvc).ConfigureRouter)
		r.Route(UserPath, NewUserApi(userService).ConfigureRouter)
	})

	return r
}
