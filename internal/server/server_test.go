package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dejobratic/storefront/internal/auth"
	cataloghttp "github.com/dejobratic/storefront/internal/catalog/adapters/http"
	catalogmemory "github.com/dejobratic/storefront/internal/catalog/adapters/memory"
	catalogapp "github.com/dejobratic/storefront/internal/catalog/app"
	"github.com/dejobratic/storefront/internal/httpx"
	idemmemory "github.com/dejobratic/storefront/internal/idempotency/memory"
	"github.com/dejobratic/storefront/internal/kafka"
	ordershttp "github.com/dejobratic/storefront/internal/orders/adapters/http"
	ordersmemory "github.com/dejobratic/storefront/internal/orders/adapters/memory"
	ordersapp "github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	ordersmetrics "github.com/dejobratic/storefront/internal/orders/metrics"
	sellershttp "github.com/dejobratic/storefront/internal/sellers/adapters/http"
	sellersmemory "github.com/dejobratic/storefront/internal/sellers/adapters/memory"
	sellersapp "github.com/dejobratic/storefront/internal/sellers/app"
	"github.com/dejobratic/storefront/internal/server"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Pagination httpx.Pagination `json:"pagination"`
	} `json:"meta"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, base server.Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	responder := httpx.NewResponder(logger, false)
	meter := noop.NewMeterProvider().Meter("test")

	tokens := auth.NewTokenIssuer(auth.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	authn := auth.NewAuthenticator(tokens, responder)

	httpMetrics, err := httpx.NewMetrics(meter)
	if err != nil {
		t.Fatalf("http metrics: %v", err)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		t.Fatalf("order metrics: %v", err)
	}

	products := catalogmemory.NewRepository()
	sellers := sellersapp.NewService(sellersmemory.NewRepository(), tokens, logger,
		sellersapp.WithPasswordCost(bcrypt.MinCost))
	catalog := catalogapp.NewService(products, logger)
	orders := ordersapp.NewService(ordersapp.Dependencies{
		Repo:     ordersmemory.NewRepository(),
		Products: products,
		Events:   kafka.NewNoopEventBus(logger),
		Idem:     idemmemory.NewStore(time.Hour),
		Policy:   commands.MissingProductPolicy{PlaceholderName: "Product"},
		Logger:   logger,
		Metrics:  orderMetrics,
	})

	opts := base
	opts.Logger = logger
	opts.Responder = responder
	opts.Metrics = httpMetrics
	opts.FrontendURL = "http://localhost:8080"
	opts.Now = func() time.Time { return fixedNow }
	opts.Handlers = []server.Registrar{
		sellershttp.NewHandler(sellers, responder, authn),
		cataloghttp.NewHandler(catalog, responder, authn),
		ordershttp.NewHandler(orders, responder, authn),
	}

	return &testServer{t: t, handler: server.NewHandler(opts)}
}

func (s *testServer) do(method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: response is not JSON: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return out
}

type session struct {
	AccessToken string `json:"accessToken"`
	Seller      struct {
		ID string `json:"id"`
	} `json:"seller"`
}

func (s *testServer) register(email, name string) session {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/seller/register", "", map[string]string{
		"email": email, "password": "secret123", "name": name,
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201, got %d (%s)", email, rec.Code, rec.Body.String())
	}
	return decodeData[session](s.t, env)
}

type product struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, server.Options{})

	rec, _ := srv.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected body %v", body)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(_ context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"database reachable", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, server.Options{Readiness: pinger{err: tt.err}})
			rec, _ := srv.do(http.MethodGet, "/readyz", "", nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, server.Options{})

	rec, env := srv.do(http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != "NOT_FOUND" || env.Error.Message != "Route GET /api/nope not found" {
		t.Errorf("unexpected error %+v", env.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, server.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
		t.Errorf("expected allowed origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials allowed, got %q", got)
	}
}

func TestProductOwnership(t *testing.T) {
	srv := newTestServer(t, server.Options{})
	sellerA := srv.register("a@example.com", "Seller A")
	sellerB := srv.register("b@example.com", "Seller B")

	rec, env := srv.do(http.MethodPost, "/api/products", sellerA.AccessToken, map[string]any{
		"name": "Silk Scarf", "price": "49.90", "category": "accessories",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeData[product](t, env)
	if created.SellerID != sellerA.Seller.ID {
		t.Fatalf("expected seller %s, got %s", sellerA.Seller.ID, created.SellerID)
	}

	t.Run("anonymous create is rejected", func(t *testing.T) {
		rec, env := srv.do(http.MethodPost, "/api/products", "", map[string]any{
			"name": "X", "price": "1", "category": "c",
		})
		if rec.Code != http.StatusUnauthorized || env.Error.Code != "AUTHENTICATION_ERROR" {
			t.Errorf("expected 401 authentication error, got %d (%s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("other seller cannot update", func(t *testing.T) {
		rec, env := srv.do(http.MethodPut, "/api/products/"+created.ID, sellerB.AccessToken, map[string]any{
			"name": "Stolen",
		})
		if rec.Code != http.StatusForbidden || env.Error.Code != "AUTHORIZATION_ERROR" {
			t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
		}

		_, env = srv.do(http.MethodGet, "/api/products/"+created.ID, "", nil)
		if got := decodeData[product](t, env); got.Name != "Silk Scarf" {
			t.Errorf("product changed to %q", got.Name)
		}
	})

	t.Run("other seller cannot delete", func(t *testing.T) {
		rec, _ := srv.do(http.MethodDelete, "/api/products/"+created.ID, sellerB.AccessToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("owner updates", func(t *testing.T) {
		rec, env := srv.do(http.MethodPut, "/api/products/"+created.ID, sellerA.AccessToken, map[string]any{
			"price": "39.90",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if got := decodeData[product](t, env); got.Price != "39.9" || got.Name != "Silk Scarf" {
			t.Errorf("unexpected product %+v", got)
		}
	})

	t.Run("seller listing", func(t *testing.T) {
		rec, env := srv.do(http.MethodGet, "/api/products/seller/"+sellerA.Seller.ID+"/products", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		list := decodeData[struct {
			Products []product `json:"products"`
		}](t, env)
		if len(list.Products) != 1 || env.Meta == nil || env.Meta.Pagination.Total != 1 {
			t.Errorf("expected one product, got %s", rec.Body.String())
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec, env := srv.do(http.MethodDelete, "/api/products/"+created.ID, sellerA.AccessToken, nil)
		if rec.Code != http.StatusOK || !env.Success {
			t.Fatalf("expected 200 success, got %d (%s)", rec.Code, rec.Body.String())
		}

		rec, _ = srv.do(http.MethodGet, "/api/products/"+created.ID, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
	})
}

type order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  []struct {
		ProductName string `json:"product_name"`
	} `json:"items"`
}

func checkout(productID string) map[string]any {
	return map[string]any{
		"customer_name":    "Ana",
		"customer_phone":   "+381600000000",
		"delivery_address": "Main St 1",
		"total_amount":     "99.80",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 2, "price": "49.90"},
		},
	}
}

func TestOrderFlow(t *testing.T) {
	srv := newTestServer(t, server.Options{})
	seller := srv.register("seller@example.com", "Seller")

	_, env := srv.do(http.MethodPost, "/api/products", seller.AccessToken, map[string]any{
		"name": "Silk Scarf", "price": "49.90", "category": "accessories",
	})
	scarf := decodeData[product](t, env)

	rec, env := srv.do(http.MethodPost, "/api/orders", "", checkout(scarf.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeData[order](t, env)
	if created.Status != "pending" || len(created.Items) != 1 || created.Items[0].ProductName != "Silk Scarf" {
		t.Fatalf("unexpected order %+v", created)
	}

	rec, env = srv.do(http.MethodGet, "/api/orders/"+created.ID, "", nil)
	if rec.Code != http.StatusOK || decodeData[order](t, env).ID != created.ID {
		t.Fatalf("get order: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, _ = srv.do(http.MethodGet, "/api/orders", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list: expected 401, got %d", rec.Code)
	}

	status := func(to string) (*httptest.ResponseRecorder, envelope) {
		return srv.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", seller.AccessToken,
			map[string]string{"status": to})
	}

	rec, env = status("shipped")
	if rec.Code != http.StatusOK || decodeData[order](t, env).Status != "shipped" {
		t.Fatalf("advance: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env = status("processing")
	if rec.Code != http.StatusBadRequest || env.Error.Message != "Cannot revert order status to a previous state" {
		t.Errorf("revert: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env = srv.do(http.MethodPatch, "/api/orders/"+created.ID+"/courier", seller.AccessToken,
		map[string]string{"courierCompany": "DHL", "courierTracking": "TRK1"})
	if rec.Code != http.StatusOK {
		t.Errorf("courier: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env = srv.do(http.MethodGet, "/api/orders?status=shipped", seller.AccessToken, nil)
	if rec.Code != http.StatusOK || env.Meta == nil || env.Meta.Pagination.Total != 1 {
		t.Errorf("list: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env = srv.do(http.MethodGet, "/api/orders/seller/stats", seller.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: got %d", rec.Code)
	}
	stats := decodeData[map[string]int](t, env)
	if stats["total"] != 1 || stats["shipped"] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}

	rec, _ = srv.do(http.MethodGet, "/api/orders/ORD-000000000", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing order: expected 404, got %d", rec.Code)
	}
}

func TestOrderIdempotentReplay(t *testing.T) {
	srv := newTestServer(t, server.Options{})

	first, env := srv.do(http.MethodPost, "/api/orders", "", checkout("unknown-product"), "Idempotency-Key", "checkout-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", first.Code, first.Body.String())
	}
	created := decodeData[order](t, env)

	second, env := srv.do(http.MethodPost, "/api/orders", "", checkout("unknown-product"), "Idempotency-Key", "checkout-1")
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay header")
	}
	if decodeData[order](t, env).ID != created.ID {
		t.Error("replay returned a different order")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("replayed body differs")
	}
}

func TestLoginErrors(t *testing.T) {
	srv := newTestServer(t, server.Options{})
	srv.register("owner@example.com", "Owner")

	_, wrongPassword := srv.do(http.MethodPost, "/api/auth/seller/login", "", map[string]string{
		"email": "owner@example.com", "password": "nope",
	})
	_, unknownEmail := srv.do(http.MethodPost, "/api/auth/seller/login", "", map[string]string{
		"email": "ghost@example.com", "password": "nope",
	})

	if wrongPassword.Error == nil || unknownEmail.Error == nil {
		t.Fatal("expected both logins to fail")
	}
	if wrongPassword.Error.Message != unknownEmail.Error.Message {
		t.Errorf("messages differ: %q vs %q", wrongPassword.Error.Message, unknownEmail.Error.Message)
	}

	rec, env := srv.do(http.MethodPost, "/api/auth/seller/register", "", map[string]string{
		"email": "OWNER@example.com", "password": "secret123", "name": "Copy",
	})
	if rec.Code != http.StatusConflict || env.Error.Code != "CONFLICT" {
		t.Errorf("duplicate email: got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestPagesPastTheEnd(t *testing.T) {
	srv := newTestServer(t, server.Options{})
	seller := srv.register("pager@example.com", "Pager")

	_, env := srv.do(http.MethodPost, "/api/products", seller.AccessToken, map[string]any{
		"name": "Silk Scarf", "price": "49.90", "category": "accessories",
	})
	scarf := decodeData[product](t, env)
	if rec, _ := srv.do(http.MethodPost, "/api/orders", "", checkout(scarf.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", rec.Code)
	}

	tests := []struct {
		name  string
		path  string
		token string
		key   string
	}{
		{"products far page", "/api/products?page=100000000000000000&limit=100", "", "products"},
		{"products near page", "/api/products?page=1000&limit=100", "", "products"},
		{"orders far page", "/api/orders?page=100000000000000000&limit=100", seller.AccessToken, "orders"},
		{"seller products far page", "/api/products/seller/" + seller.Seller.ID + "/products?page=9223372036854775807", "", "products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := srv.do(http.MethodGet, tt.path, tt.token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
			}
			list := decodeData[map[string][]json.RawMessage](t, env)
			if items, ok := list[tt.key]; !ok || len(items) != 0 {
				t.Errorf("expected empty %s list, got %s", tt.key, env.Data)
			}
			if env.Meta == nil || env.Meta.Pagination.Total != 1 {
				t.Errorf("expected total 1, got %+v", env.Meta)
			}
		})
	}
}

func TestCheckoutResolvesUppercaseProductID(t *testing.T) {
	srv := newTestServer(t, server.Options{})
	seller := srv.register("case@example.com", "Case")

	_, env := srv.do(http.MethodPost, "/api/products", seller.AccessToken, map[string]any{
		"name": "Silk Scarf", "price": "49.90", "category": "accessories",
	})
	scarf := decodeData[product](t, env)

	rec, env := srv.do(http.MethodPost, "/api/orders", "", checkout(strings.ToUpper(scarf.ID)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := decodeData[order](t, env).Items[0].ProductName; got != "Silk Scarf" {
		t.Errorf("expected product name Silk Scarf, got %q", got)
	}
}
