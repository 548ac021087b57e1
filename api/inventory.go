package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sksmith/stock-ledger/core/inventory"
)

type InventoryApi struct {
	service inventory.Service
}

func NewInventoryApi(service inventory.Service) *InventoryApi {
	return &InventoryApi{service: service}
}

func (a *InventoryApi) ConfigureRouter(r chi.Router) {
	r.With(Paginate).Get("/", a.List)
	r.Put("/", a.Create)

	r.Route("/{productId}", func(r chi.Router) {
		r.Get("/", a.Get)
		r.With(Paginate).Get("/audit", a.GetAuditLog)
		r.Post("/locations", a.AddLocation)
		r.Post("/reserve", a.Reserve)
		r.Post("/release", a.Release)
		r.Post("/adjust", a.Adjust)
		r.Post("/restock", a.Restock)
		r.Post("/reorder-check", a.CheckReorder)
	})
}

func (a *InventoryApi) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	q := r.URL.Query()

	state, err := inventory.ParseItemState(q.Get("state"))
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	filter := inventory.ItemFilter{
		Sku:        q.Get("sku"),
		State:      state,
		LocationID: q.Get("location"),
	}

	items, err := a.service.ListItems(r.Context(), filter, limit, offset)
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	RenderList(w, r, NewItemListResponse(items))
}

func (a *InventoryApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateItemRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.CreateItem(r.Context(), data.NewItemRequest)
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewItemResponse(item))
}

func (a *InventoryApi) Get(w http.ResponseWriter, r *http.Request) {
	item, err := a.service.GetItem(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	Render(w, r, NewItemResponse(item))
}

func (a *InventoryApi) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	q := r.URL.Query()

	filter := inventory.AuditFilter{
		LocationID:  q.Get("location"),
		ReferenceID: q.Get("reference"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}
		filter.Since = t
	}

	trail, err := a.service.GetAuditLog(r.Context(), chi.URLParam(r, "productId"), filter, limit, offset)
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	RenderList(w, r, NewAuditListResponse(trail))
}

func (a *InventoryApi) AddLocation(w http.ResponseWriter, r *http.Request) {
	data := &LocationRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.AddLocation(r.Context(), chi.URLParam(r, "productId"), data.LocationRequest)
	a.respond(w, r, item, err)
}

func (a *InventoryApi) Reserve(w http.ResponseWriter, r *http.Request) {
	data := &StockRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.Reserve(r.Context(), chi.URLParam(r, "productId"), data.StockRequest)
	a.respond(w, r, item, err)
}

func (a *InventoryApi) Release(w http.ResponseWriter, r *http.Request) {
	data := &StockRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.Release(r.Context(), chi.URLParam(r, "productId"), data.StockRequest)
	a.respond(w, r, item, err)
}

func (a *InventoryApi) Adjust(w http.ResponseWriter, r *http.Request) {
	data := &AdjustRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.Adjust(r.Context(), chi.URLParam(r, "productId"), data.AdjustRequest)
	a.respond(w, r, item, err)
}

func (a *InventoryApi) Restock(w http.ResponseWriter, r *http.Request) {
	data := &RestockRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Actor = Actor(r, data.Actor)

	item, err := a.service.Restock(r.Context(), chi.URLParam(r, "productId"), data.RestockRequest)
	a.respond(w, r, item, err)
}

func (a *InventoryApi) CheckReorder(w http.ResponseWriter, r *http.Request) {
	res, err := a.service.CheckReorder(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	Render(w, r, &ReorderResponse{ReorderResult: res})
}

func (a *InventoryApi) respond(w http.ResponseWriter, r *http.Request, item inventory.InventoryItem, err error) {
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}
	Render(w, r, NewItemResponse(item))
}
