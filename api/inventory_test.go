package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/api"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/testutil"
)

func TestInventoryList(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		query          string
		items          []inventory.InventoryItem
		serviceErr     error
		wantLimit      int
		wantOffset     int
		wantFilter     inventory.ItemFilter
		wantCount      int
		wantStatusCode int
	}{
		{
			name:           "defaults are applied to invalid paging",
			query:          "?limit=-1&offset=-1",
			items:          getTestItems(),
			wantLimit:      api.DefaultPageLimit,
			wantOffset:     0,
			wantCount:      3,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "paging and filters are passed through",
			query:          "?limit=5&offset=7&sku=abc&state=reorder_pending&location=WH-1",
			items:          getTestItems()[:1],
			wantLimit:      5,
			wantOffset:     7,
			wantFilter:     inventory.ItemFilter{Sku: "abc", State: inventory.StateReorderPending, LocationID: "WH-1"},
			wantCount:      1,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "limits are capped",
			query:          "?limit=100000",
			items:          []inventory.InventoryItem{},
			wantLimit:      api.MaxPageLimit,
			wantCount:      0,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "an unknown state is a bad request",
			query:          "?state=bogus",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "service errors are internal server errors",
			query:          "",
			serviceErr:     errors.New("some unexpected error"),
			wantLimit:      api.DefaultPageLimit,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			var gotFilter inventory.ItemFilter
			mockSvc.ListItemsFunc = func(ctx context.Context, filter inventory.ItemFilter, limit, offset int) ([]inventory.InventoryItem, error) {
				gotFilter, gotLimit, gotOffset = filter, limit, offset
				return test.items, test.serviceErr
			}

			res := testutil.Get(ts.URL+test.query, t)

			if res.StatusCode != test.wantStatusCode {
				t.Fatalf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantStatusCode == http.StatusBadRequest {
				return
			}
			if gotLimit != test.wantLimit {
				t.Errorf("limit got=%d want=%d", gotLimit, test.wantLimit)
			}
			if gotOffset != test.wantOffset {
				t.Errorf("offset got=%d want=%d", gotOffset, test.wantOffset)
			}
			if gotFilter != test.wantFilter {
				t.Errorf("filter got=%+v want=%+v", gotFilter, test.wantFilter)
			}
			if test.wantStatusCode != http.StatusOK {
				return
			}

			got := []inventory.InventoryItem{}
			testutil.Unmarshal(res, &got, t)
			if len(got) != test.wantCount {
				t.Errorf("item count got=%d want=%d", len(got), test.wantCount)
			}
		})
	}
}

func TestInventoryCreate(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		request        interface{}
		createErr      error
		wantKind       inventory.Kind
		wantCalled     bool
		wantStatusCode int
	}{
		{
			name:           "valid items are created",
			request:        inventory.NewItemRequest{ProductID: "P-1", Sku: "sku-1"},
			wantCalled:     true,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing product ids are rejected before the service",
			request:        inventory.NewItemRequest{Sku: "sku-1"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "stock cannot be set on creation",
			request: map[string]interface{}{
				"productId":       "P-1",
				"sku":             "sku-1",
				"stockByLocation": []inventory.StockPool{{LocationID: "A", Available: 10}},
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid configuration is a bad request with a kind",
			request:        inventory.NewItemRequest{ProductID: "P-1", Sku: "sku-1"},
			createErr:      errors.Wrap(inventory.ErrInvalidConfiguration, "reorder quantity must be positive"),
			wantKind:       inventory.KindInvalidConfiguration,
			wantCalled:     true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unexpected errors are internal server errors",
			request:        inventory.NewItemRequest{ProductID: "P-1", Sku: "sku-1"},
			createErr:      errors.New("some unexpected error"),
			wantCalled:     true,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			called := false
			mockSvc.CreateItemFunc = func(ctx context.Context, req inventory.NewItemRequest) (inventory.InventoryItem, error) {
				called = true
				if req.Actor != "anonymous" {
					t.Errorf("unexpected actor got=%s want=anonymous", req.Actor)
				}
				return inventory.InventoryItem{ProductID: req.ProductID, Sku: req.Sku, Version: 1}, test.createErr
			}

			res := testutil.Put(ts.URL, test.request, t)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if called != test.wantCalled {
				t.Errorf("service called got=%v want=%v", called, test.wantCalled)
			}
			if test.wantKind != inventory.KindNone {
				got := &api.ErrResponse{}
				testutil.Unmarshal(res, got, t)
				if got.Kind != test.wantKind {
					t.Errorf("kind got=%s want=%s", got.Kind, test.wantKind)
				}
			}
		})
	}
}

func TestInventoryGet(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		getErr         error
		wantStatusCode int
		wantResponse   *api.ErrResponse
	}{
		{name: "found", wantStatusCode: http.StatusOK},
		{name: "not found", getErr: errors.WithStack(core.ErrNotFound), wantStatusCode: http.StatusNotFound, wantResponse: api.ErrNotFound},
		{name: "unexpected", getErr: errors.New("boom"), wantStatusCode: http.StatusInternalServerError, wantResponse: api.ErrInternalServer},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotProductID string
			mockSvc.GetItemFunc = func(ctx context.Context, productID string) (inventory.InventoryItem, error) {
				gotProductID = productID
				return getTestItems()[0], test.getErr
			}

			res := testutil.Get(ts.URL+"/P-1", t)

			if res.StatusCode != test.wantStatusCode {
				t.Fatalf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if gotProductID != "P-1" {
				t.Errorf("product id got=%s want=P-1", gotProductID)
			}

			if test.wantResponse != nil {
				got := &api.ErrResponse{}
				testutil.Unmarshal(res, got, t)
				if got.StatusText != test.wantResponse.StatusText {
					t.Errorf("status text got=%s want=%s", got.StatusText, test.wantResponse.StatusText)
				}
				return
			}

			got := inventory.InventoryItem{}
			testutil.Unmarshal(res, &got, t)
			if got.TotalAvailable != 10 {
				t.Errorf("total available got=%d want=10", got.TotalAvailable)
			}
		})
	}
}

func TestInventoryAuditLog(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	var gotLimit, gotOffset int
	var gotFilter inventory.AuditFilter
	mockSvc.GetAuditLogFunc = func(ctx context.Context, productID string, filter inventory.AuditFilter, limit, offset int) (inventory.AuditTrail, error) {
		gotLimit, gotOffset, gotFilter = limit, offset, filter
		return inventory.AuditTrail{
			{ID: "1", Reason: inventory.ReasonRestock, Delta: 10, NewValue: 10},
			{ID: "2", Reason: inventory.ReasonReservation, Delta: -2, PreviousValue: 10, NewValue: 8},
		}, nil
	}

	res := testutil.Get(ts.URL+"/P-1/audit?limit=2&offset=1", t)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := []inventory.AuditLogEntry{}
	testutil.Unmarshal(res, &got, t)
	if len(got) != 2 {
		t.Fatalf("entry count got=%d want=2", len(got))
	}
	if got[1].Reason != inventory.ReasonReservation {
		t.Errorf("reason got=%s want=%s", got[1].Reason, inventory.ReasonReservation)
	}
	if gotLimit != 2 || gotOffset != 1 {
		t.Errorf("paging got=%d,%d want=2,1", gotLimit, gotOffset)
	}
	if gotFilter != (inventory.AuditFilter{}) {
		t.Errorf("unexpected filter %+v", gotFilter)
	}
}

func TestInventoryAuditLogFilters(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	since := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		wantFilter     inventory.AuditFilter
		wantCalled     bool
		wantStatusCode int
	}{
		{
			name:           "location and reference",
			query:          "?location=WH-2&reference=O-7",
			wantFilter:     inventory.AuditFilter{LocationID: "WH-2", ReferenceID: "O-7"},
			wantCalled:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "since",
			query:          "?since=2024-03-01T12:00:00Z",
			wantFilter:     inventory.AuditFilter{Since: since},
			wantCalled:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "malformed since is rejected",
			query:          "?since=yesterday",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			called := false
			var gotFilter inventory.AuditFilter
			mockSvc.GetAuditLogFunc = func(ctx context.Context, productID string, filter inventory.AuditFilter, limit, offset int) (inventory.AuditTrail, error) {
				called, gotFilter = true, filter
				return inventory.AuditTrail{}, nil
			}

			res := testutil.Get(ts.URL+"/P-1/audit"+test.query, t)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if called != test.wantCalled {
				t.Errorf("service called got=%v want=%v", called, test.wantCalled)
			}
			if !gotFilter.Since.Equal(test.wantFilter.Since) ||
				gotFilter.LocationID != test.wantFilter.LocationID ||
				gotFilter.ReferenceID != test.wantFilter.ReferenceID {
				t.Errorf("filter got=%+v want=%+v", gotFilter, test.wantFilter)
			}
		})
	}
}

func TestInventoryMutations(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	insufficient := errors.Wrap(inventory.ErrInsufficientStock, "requested 5, available 2")

	tests := []struct {
		name           string
		path           string
		request        interface{}
		setup          func(err error)
		err            error
		wantKind       inventory.Kind
		wantStatusCode int
	}{
		{
			name:    "reserve",
			path:    "/P-1/reserve",
			request: inventory.StockRequest{Quantity: 2, ReferenceID: "O-1"},
			setup: func(err error) {
				mockSvc.ReserveFunc = func(ctx context.Context, productID string, req inventory.StockRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{ProductID: productID}, err
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:    "reserve beyond available stock is rejected",
			path:    "/P-1/reserve",
			request: inventory.StockRequest{Quantity: 5},
			setup: func(err error) {
				mockSvc.ReserveFunc = func(ctx context.Context, productID string, req inventory.StockRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{}, err
				}
			},
			err:            insufficient,
			wantKind:       inventory.KindInsufficientStock,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:    "release of zero is an invalid quantity",
			path:    "/P-1/release",
			request: inventory.StockRequest{Quantity: 0},
			setup: func(err error) {
				mockSvc.ReleaseFunc = func(ctx context.Context, productID string, req inventory.StockRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{}, err
				}
			},
			err:            errors.Wrap(inventory.ErrInvalidQuantity, "quantity must be positive"),
			wantKind:       inventory.KindInvalidQuantity,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:    "adjust at an unknown location",
			path:    "/P-1/adjust",
			request: inventory.AdjustRequest{LocationID: "nowhere", StockType: inventory.StockDamaged, Delta: 1},
			setup: func(err error) {
				mockSvc.AdjustFunc = func(ctx context.Context, productID string, req inventory.AdjustRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{}, err
				}
			},
			err:            errors.Wrap(inventory.ErrLocationNotFound, "nowhere"),
			wantKind:       inventory.KindLocationNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "adjust without a location never reaches the service",
			path:           "/P-1/adjust",
			request:        inventory.AdjustRequest{StockType: inventory.StockDamaged, Delta: 1},
			setup:          func(err error) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:    "restock",
			path:    "/P-1/restock",
			request: inventory.RestockRequest{Quantity: 50},
			setup: func(err error) {
				mockSvc.RestockFunc = func(ctx context.Context, productID string, req inventory.RestockRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{ProductID: productID}, err
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:    "concurrent modification is a conflict",
			path:    "/P-1/restock",
			request: inventory.RestockRequest{Quantity: 50},
			setup: func(err error) {
				mockSvc.RestockFunc = func(ctx context.Context, productID string, req inventory.RestockRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{}, err
				}
			},
			err:            errors.WithStack(core.ErrVersionConflict),
			wantStatusCode: http.StatusConflict,
		},
		{
			name:    "add location",
			path:    "/P-1/locations",
			request: inventory.LocationRequest{LocationID: "WH-2", LocationName: "Overflow"},
			setup: func(err error) {
				mockSvc.AddLocationFunc = func(ctx context.Context, productID string, req inventory.LocationRequest) (inventory.InventoryItem, error) {
					return inventory.InventoryItem{ProductID: productID}, err
				}
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.setup(test.err)

			res := testutil.Post(ts.URL+test.path, test.request, t)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
			if test.wantKind != inventory.KindNone {
				got := &api.ErrResponse{}
				testutil.Unmarshal(res, got, t)
				if got.Kind != test.wantKind {
					t.Errorf("kind got=%s want=%s", got.Kind, test.wantKind)
				}
			}
		})
	}
}

func TestInventoryReorderCheck(t *testing.T) {
	ts, mockSvc := setupInventoryTestServer()
	defer ts.Close()

	mockSvc.CheckReorderFunc = func(ctx context.Context, productID string) (inventory.ReorderResult, error) {
		return inventory.ReorderResult{NeedsReorder: true, TotalAvailable: 3, SuggestedQuantity: 20}, nil
	}

	res := testutil.Post(ts.URL+"/P-1/reorder-check", nil, t)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := inventory.ReorderResult{}
	testutil.Unmarshal(res, &got, t)
	if !got.NeedsReorder || got.SuggestedQuantity != 20 {
		t.Errorf("unexpected reorder result got=%+v", got)
	}
}

func getTestItems() []inventory.InventoryItem {
	return []inventory.InventoryItem{
		{
			ProductID:       "P-1",
			Sku:             "SKU-1",
			StockByLocation: []inventory.StockPool{{LocationID: "WH-1", Available: 10}},
			TotalAvailable:  10,
			State:           inventory.StateActive,
			Version:         1,
		},
		{ProductID: "P-2", Sku: "SKU-2", State: inventory.StateActive, Version: 3},
		{ProductID: "P-3", Sku: "SKU-3", State: inventory.StateReorderPending, Version: 7},
	}
}
