package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/sksmith/stock-ledger/api"
	"github.com/sksmith/stock-ledger/config"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/core/user"
	"github.com/sksmith/stock-ledger/test"
	"github.com/sksmith/stock-ledger/testutil"
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	os.Exit(m.Run())
}

func TestHealth(t *testing.T) {
	ts, _, _ := setupRouterTestServer()
	defer ts.Close()

	res := testutil.Get(ts.URL+"/health", t)
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	if string(body) != "UP" {
		t.Errorf("unexpected body got=%s want=UP", string(body))
	}
}

func TestApiRequiresAuthentication(t *testing.T) {
	ts, _, usrSvc := setupRouterTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		loginFunc      func(ctx context.Context, username, password string) (user.User, error)
		options        []testutil.RequestOptions
		wantStatusCode int
	}{
		{
			name:           "requests without credentials are rejected",
			options:        nil,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "requests with bad credentials are rejected",
			loginFunc: func(ctx context.Context, username, password string) (user.User, error) {
				return user.User{}, user.ErrBadCredentials
			},
			options:        []testutil.RequestOptions{{Username: "someuser", Password: "wrongpass"}},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "authenticated requests reach the inventory",
			loginFunc: func(ctx context.Context, username, password string) (user.User, error) {
				return createUser(username, "", false), nil
			},
			options:        []testutil.RequestOptions{{Username: "someuser", Password: "somepass"}},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.loginFunc != nil {
				usrSvc.LoginFunc = test.loginFunc
			}

			res := testutil.Get(ts.URL+api.ApiPath+api.InventoryPath, t, test.options...)

			if res.StatusCode != test.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
			}
		})
	}
}

func TestAuthenticatedUserIsTheActor(t *testing.T) {
	ts, invSvc, usrSvc := setupRouterTestServer()
	defer ts.Close()

	usrSvc.LoginFunc = func(ctx context.Context, username, password string) (user.User, error) {
		return createUser(username, "", false), nil
	}

	var gotActor string
	invSvc.ReserveFunc = func(ctx context.Context, productID string, req inventory.StockRequest) (inventory.InventoryItem, error) {
		gotActor = req.Actor
		return inventory.InventoryItem{ProductID: productID}, nil
	}

	url := ts.URL + api.ApiPath + api.InventoryPath + "/P-1/reserve"
	req := inventory.StockRequest{Quantity: 1, Actor: "someoneelse"}
	res := testutil.Post(url, req, t, testutil.RequestOptions{Username: "alice", Password: "somepass"})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	if gotActor != "alice" {
		t.Errorf("unexpected actor got=%s want=alice", gotActor)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts, _, _ := setupRouterTestServer()
	defer ts.Close()

	_ = testutil.Get(ts.URL+"/health", t)
	res := testutil.Get(ts.URL+"/metrics", t)
	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}
}

func setupRouterTestServer() (*httptest.Server, *inventory.MockInventoryService, *user.MockUserService) {
	cfg := config.LoadDefaults()
	invSvc := inventory.NewMockInventoryService()
	usrSvc := user.NewMockUserService()
	ts := httptest.NewServer(api.ConfigureRouter(cfg, &invSvc, &usrSvc))
	return ts, &invSvc, &usrSvc
}

// setupInventoryTestServer mounts the inventory routes without authentication.
func setupInventoryTestServer() (*httptest.Server, *inventory.MockInventoryService) {
	mockSvc := inventory.NewMockInventoryService()
	invApi := api.NewInventoryApi(&mockSvc)
	r := chi.NewRouter()
	invApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func createUser(username, password string, isAdmin bool) user.User {
	return user.User{Username: username, HashedPassword: password, IsAdmin: isAdmin}
}
