package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sksmith/stock-ledger/api"
	"github.com/sksmith/stock-ledger/config"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/test"
	"github.com/sksmith/stock-ledger/testutil"
)

var (
	ts    *httptest.Server
	admin = testutil.RequestOptions{Username: "admin", Password: "adminpassword"}
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	ctx := context.Background()
	cfg := config.LoadDefaults()
	cfg.Db.InMemory = true
	cfg.RabbitMQ.Mock = true
	cfg.Admin.User = admin.Username
	cfg.Admin.Pass = admin.Password

	ir, ur := configRepositories(ctx, cfg)
	invService := inventory.NewService(ir, configInventoryQueue(nil, cfg), configLocker(cfg), inventory.NewLedger())
	userService := user.NewService(ur)
	bootstrapAdmin(ctx, cfg, userService)

	ts = httptest.NewServer(api.ConfigureRouter(cfg, invService, userService))
	code := m.Run()
	ts.Close()
	os.Exit(code)
}

func TestStockLifecycle(t *testing.T) {
	inv := ts.URL + api.ApiPath + api.InventoryPath
	orders := ts.URL + api.ApiPath + api.OrderPath

	reorderPoint := int64(5)
	res := testutil.Put(inv, inventory.NewItemRequest{ProductID: "P-100", Sku: " widget-1 ", ReorderPoint: &reorderPoint}, t, admin)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status got=%d want=%d", res.StatusCode, http.StatusCreated)
	}
	created := inventory.InventoryItem{}
	testutil.Unmarshal(res, &created, t)
	if created.Sku != "WIDGET-1" {
		t.Errorf("unexpected sku got=%s want=WIDGET-1", created.Sku)
	}
	if len(created.StockByLocation) != 1 {
		t.Fatalf("expected a default location got=%d", len(created.StockByLocation))
	}

	res = testutil.Post(inv+"/P-100/restock", inventory.RestockRequest{Quantity: 20}, t, admin)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("restock status got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	order := api.OrderRequestDto{Lines: []inventory.OrderLine{
		{ProductID: "P-100", Quantity: 3},
		{ProductID: "P-404", Quantity: 1},
	}}
	res = testutil.Post(orders+"/O-1/reserve", order, t, admin)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reserve status got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	reserved := api.OrderResponse{}
	testutil.Unmarshal(res, &reserved, t)
	if reserved.Failed != 1 {
		t.Errorf("failed lines got=%d want=1", reserved.Failed)
	}
	if reserved.Lines[0].Status != inventory.LineReserved {
		t.Errorf("first line got=%s want=%s", reserved.Lines[0].Status, inventory.LineReserved)
	}

	res = testutil.Get(inv+"/P-100", t, admin)
	item := inventory.InventoryItem{}
	testutil.Unmarshal(res, &item, t)
	if item.TotalAvailable != 17 || item.TotalReserved != 3 {
		t.Errorf("unexpected totals available=%d reserved=%d", item.TotalAvailable, item.TotalReserved)
	}

	res = testutil.Post(orders+"/O-1/cancel", api.OrderRequestDto{Lines: order.Lines[:1]}, t, admin)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel status got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	res = testutil.Post(inv+"/P-100/reserve", inventory.StockRequest{Quantity: 500}, t, admin)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("oversized reserve status got=%d want=%d", res.StatusCode, http.StatusUnprocessableEntity)
	}

	res = testutil.Get(inv+"/P-100/audit?limit=500", t, admin)
	trail := []inventory.AuditLogEntry{}
	testutil.Unmarshal(res, &trail, t)
	if len(trail) == 0 {
		t.Fatal("expected audit entries")
	}
	if trail[0].Reason != inventory.ReasonLocationCreated {
		t.Errorf("first entry got=%s want=%s", trail[0].Reason, inventory.ReasonLocationCreated)
	}
	last := trail[len(trail)-1]
	if last.Reason != inventory.ReasonRelease || last.Actor != admin.Username || last.ReferenceID != "O-1" {
		t.Errorf("unexpected last entry %+v", last)
	}
}

func TestListBySku(t *testing.T) {
	inv := ts.URL + api.ApiPath + api.InventoryPath

	for _, id := range []string{"L-1", "L-2"} {
		res := testutil.Put(inv, inventory.NewItemRequest{ProductID: id, Sku: "list-" + id}, t, admin)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create status got=%d want=%d", res.StatusCode, http.StatusCreated)
		}
	}

	res := testutil.Get(inv+"?sku=list-l-2", t, admin)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	items := []inventory.InventoryItem{}
	testutil.Unmarshal(res, &items, t)
	if len(items) != 1 || items[0].ProductID != "L-2" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	res := testutil.Get(ts.URL+api.ApiPath+api.InventoryPath, t)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("status got=%d want=%d", res.StatusCode, http.StatusUnauthorized)
	}
}
