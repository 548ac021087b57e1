package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core/inventory"
)

type ItemResponse struct {
	inventory.InventoryItem
}

func NewItemResponse(item inventory.InventoryItem) *ItemResponse {
	return &ItemResponse{InventoryItem: item}
}

func (rd *ItemResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	if rd.StockByLocation == nil {
		rd.StockByLocation = []inventory.StockPool{}
	}
	if rd.AuditLog == nil {
		rd.AuditLog = inventory.AuditTrail{}
	}
	return nil
}

func NewItemListResponse(items []inventory.InventoryItem) []render.Renderer {
	list := make([]render.Renderer, 0, len(items))
	for _, item := range items {
		list = append(list, NewItemResponse(item))
	}
	return list
}

type AuditEntryResponse struct {
	inventory.AuditLogEntry
}

func (rd *AuditEntryResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewAuditListResponse(trail inventory.AuditTrail) []render.Renderer {
	list := make([]render.Renderer, 0, len(trail))
	for _, e := range trail {
		list = append(list, &AuditEntryResponse{AuditLogEntry: e})
	}
	return list
}

type ReorderResponse struct {
	inventory.ReorderResult
}

func (rd *ReorderResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type CreateItemRequest struct {
	inventory.NewItemRequest

	// stock only arrives through restock and adjust
	ProtectedStock []inventory.StockPool `json:"stockByLocation"`
}

func (p *CreateItemRequest) Bind(_ *http.Request) error {
	if p.ProductID == "" || p.Sku == "" {
		return errors.New("productId and sku are required")
	}
	if len(p.ProtectedStock) > 0 {
		return errors.New("stockByLocation cannot be set on creation, use restock or adjust")
	}
	return nil
}

type LocationRequestDto struct {
	inventory.LocationRequest
}

func (p *LocationRequestDto) Bind(_ *http.Request) error {
	if p.LocationID == "" {
		return errors.New("locationId is required")
	}
	return nil
}

// StockRequestDto carries reserve and release bodies. Quantity rules are enforced by the ledger so the
// response carries its error kind.
type StockRequestDto struct {
	inventory.StockRequest
}

func (p *StockRequestDto) Bind(_ *http.Request) error {
	return nil
}

type AdjustRequestDto struct {
	inventory.AdjustRequest
}

func (p *AdjustRequestDto) Bind(_ *http.Request) error {
	if p.LocationID == "" {
		return errors.New("locationId is required")
	}
	if p.StockType == "" {
		return errors.New("stockType is required")
	}
	return nil
}

type RestockRequestDto struct {
	inventory.RestockRequest
}

func (p *RestockRequestDto) Bind(_ *http.Request) error {
	return nil
}
