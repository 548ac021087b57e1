package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sksmith/stock-ledger/core/inventory"
)

type OrderApi struct {
	service inventory.Service
}

func NewOrderApi(service inventory.Service) *OrderApi {
	return &OrderApi{service: service}
}

func (a *OrderApi) ConfigureRouter(r chi.Router) {
	r.Route("/{orderId}", func(r chi.Router) {
		r.Post("/reserve", a.handle(a.service.ReserveOrder))
		r.Post("/cancel", a.handle(a.service.CancelOrder))
		r.Post("/return", a.handle(a.service.ReturnOrder))
	})
}

type orderOp func(ctx context.Context, req inventory.OrderRequest) (inventory.OrderResult, error)

func (a *OrderApi) handle(op orderOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := &OrderRequestDto{}
		if err := render.Bind(r, data); err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}

		req := inventory.OrderRequest{
			OrderID: chi.URLParam(r, "orderId"),
			Actor:   Actor(r, data.Actor),
			Lines:   data.Lines,
		}

		res, err := op(r.Context(), req)
		if err != nil {
			Render(w, r, ErrFromService(err))
			return
		}

		Render(w, r, NewOrderResponse(res))
	}
}
