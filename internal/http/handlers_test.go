package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrolink/internal/auth"
	"agrolink/internal/config"
	"agrolink/internal/repository"
	"agrolink/internal/service"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	store := repository.NewMemoryStore()
	usersRepo := repository.NewMemoryUsers(store)
	productsRepo := repository.NewMemoryProducts(store)
	locationsRepo := repository.NewMemoryLocations(store)
	ordersRepo := repository.NewMemoryOrders(store)
	paymentsRepo := repository.NewMemoryPayments(store)
	ratingsRepo := repository.NewMemoryRatings(store)
	tx := repository.NewMemoryTx(store)

	tokens := auth.NewTokenManager("test-secret", service.TokenTTL)
	orders := service.NewOrderService(productsRepo, ordersRepo, usersRepo, locationsRepo, tx, nil)
	cfg := &config.Config{Port: "0", Env: "test", JWTSecret: "test-secret"}
	return NewServer(cfg, tokens, Services{
		Users:     service.NewUserService(usersRepo, tokens),
		Products:  service.NewProductService(productsRepo, usersRepo, locationsRepo),
		Locations: service.NewLocationService(locationsRepo),
		Orders:    orders,
		Payments:  service.NewPaymentService(paymentsRepo, ordersRepo, orders, usersRepo, tx, nil),
		Ratings:   service.NewRatingService(ratingsRepo, ordersRepo),
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func registerAndLogin(t *testing.T, s *Server, role, email string) (id, token string) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "User " + email, "email": email, "password": "secreto1", "role": role, "phone": "+56 9 1234 5678",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	var reg struct {
		ID string `json:"id"`
	}
	decode(t, w, &reg)

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": "secreto1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	decode(t, w, &res)
	return reg.ID, res.Token
}

func createProductHTTP(t *testing.T, s *Server, token, name string, price float64, stock int64) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/products", token, map[string]any{
		"name": name, "price": price, "stock": stock, "category": "verduras",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create product: %d %s", w.Code, w.Body.String())
	}
	var p struct {
		ID string `json:"id"`
	}
	decode(t, w, &p)
	return p.ID
}

func TestRegister_DuplicateEmailMessage(t *testing.T) {
	s := setupServer(t)
	registerAndLogin(t, s, "consumer", "ana@agrolink.cl")

	w := doJSON(t, s, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Ana 2", "email": "ANA@agrolink.cl", "password": "secreto2", "role": "consumer", "phone": "+56911112222",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	if body.Error != "Correo ya registrado" {
		t.Fatalf("expected 'Correo ya registrado', got %q", body.Error)
	}
}

func TestAuthGating(t *testing.T) {
	s := setupServer(t)
	_, consumerToken := registerAndLogin(t, s, "consumer", "cons@agrolink.cl")

	// no token → 401
	if w := doJSON(t, s, http.MethodPost, "/api/orders", "", map[string]any{}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	// garbage token → 401
	if w := doJSON(t, s, http.MethodGet, "/api/orders/my", "no-es-un-token", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	// wrong role → 403
	if w := doJSON(t, s, http.MethodPost, "/api/products", consumerToken, map[string]any{
		"name": "X", "price": 1, "stock": 1,
	}); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", w.Code, w.Body.String())
	}
}

func TestOrderLifecycleFlow(t *testing.T) {
	s := setupServer(t)
	producerID, producerToken := registerAndLogin(t, s, "producer", "prod@agrolink.cl")
	_, consumerToken := registerAndLogin(t, s, "consumer", "cons@agrolink.cl")

	p1 := createProductHTTP(t, s, producerToken, "Tomates", 10, 10)
	p2 := createProductHTTP(t, s, producerToken, "Lechugas", 5, 10)

	// place the 2-item order: qty 3 @ $10 and qty 1 @ $5
	w := doJSON(t, s, http.MethodPost, "/api/orders", consumerToken, map[string]any{
		"producerId": producerID,
		"items": []map[string]any{
			{"productId": p1, "quantity": 3},
			{"productId": p2, "quantity": 1},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	var order struct {
		ID     string  `json:"id"`
		Total  float64 `json:"total"`
		Status string  `json:"status"`
	}
	decode(t, w, &order)
	if order.Total != 35 || order.Status != "pending" {
		t.Fatalf("bad order: %+v", order)
	}

	// stock snapshots after reservation
	for _, expect := range []struct {
		id    string
		stock int64
	}{{p1, 7}, {p2, 9}} {
		w := doJSON(t, s, http.MethodGet, "/api/products/"+expect.id, "", nil)
		var p struct {
			Stock int64 `json:"stock"`
		}
		decode(t, w, &p)
		if p.Stock != expect.stock {
			t.Fatalf("product %s: expected stock %d, got %d", expect.id, expect.stock, p.Stock)
		}
	}

	// wrong amount → 400
	if w := doJSON(t, s, http.MethodPost, "/api/payments", consumerToken, map[string]any{
		"orderId": order.ID, "amount": 30, "method": "transferencia",
	}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on amount mismatch, got %d", w.Code)
	}
	// exact amount → 200
	if w := doJSON(t, s, http.MethodPost, "/api/payments", consumerToken, map[string]any{
		"orderId": order.ID, "amount": 35, "method": "transferencia",
	}); w.Code != http.StatusOK {
		t.Fatalf("payment: %d %s", w.Code, w.Body.String())
	}
	// a second confirmation must fail
	if w := doJSON(t, s, http.MethodPost, "/api/payments", consumerToken, map[string]any{
		"orderId": order.ID, "amount": 35, "method": "transferencia",
	}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate payment, got %d", w.Code)
	}

	// deliver before ship → 400
	if w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%s/deliver", order.ID), producerToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on premature deliver, got %d", w.Code)
	}
	if w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%s/ship", order.ID), producerToken, nil); w.Code != http.StatusOK {
		t.Fatalf("ship: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%s/deliver", order.ID), producerToken, nil); w.Code != http.StatusOK {
		t.Fatalf("deliver: %d %s", w.Code, w.Body.String())
	}

	// rate the delivered order
	if w := doJSON(t, s, http.MethodPost, "/api/ratings", consumerToken, map[string]any{
		"orderId": order.ID, "score": 5, "comment": "excelente",
	}); w.Code != http.StatusOK {
		t.Fatalf("rating: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, s, http.MethodPost, "/api/ratings", consumerToken, map[string]any{
		"orderId": order.ID, "score": 1,
	}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate rating, got %d", w.Code)
	}

	// public aggregate
	w = doJSON(t, s, http.MethodGet, "/api/ratings/producer/"+producerID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d", w.Code)
	}
	var sum struct {
		Average *float64 `json:"average"`
		Count   int      `json:"count"`
	}
	decode(t, w, &sum)
	if sum.Count != 1 || sum.Average == nil || *sum.Average != 5 {
		t.Fatalf("bad summary: %+v", sum)
	}
}

func TestCancelFlow(t *testing.T) {
	s := setupServer(t)
	producerID, producerToken := registerAndLogin(t, s, "producer", "prod@agrolink.cl")
	_, consumerToken := registerAndLogin(t, s, "consumer", "cons@agrolink.cl")

	p := createProductHTTP(t, s, producerToken, "Tomates", 10, 10)

	w := doJSON(t, s, http.MethodPost, "/api/orders", consumerToken, map[string]any{
		"producerId": producerID,
		"items":      []map[string]any{{"productId": p, "quantity": 4}},
	})
	var order struct {
		ID string `json:"id"`
	}
	decode(t, w, &order)

	// pay it: now only producer/admin may cancel
	if w := doJSON(t, s, http.MethodPost, "/api/payments", consumerToken, map[string]any{
		"orderId": order.ID, "amount": 40, "method": "transferencia",
	}); w.Code != http.StatusOK {
		t.Fatalf("payment: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%s/cancel", order.ID), consumerToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for consumer paid-cancel, got %d", w.Code)
	}
	if w := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/orders/%s/cancel", order.ID), producerToken, nil); w.Code != http.StatusOK {
		t.Fatalf("producer cancel: %d %s", w.Code, w.Body.String())
	}

	// stock restored
	w = doJSON(t, s, http.MethodGet, "/api/products/"+p, "", nil)
	var got struct {
		Stock int64 `json:"stock"`
	}
	decode(t, w, &got)
	if got.Stock != 10 {
		t.Fatalf("stock not restored: %d", got.Stock)
	}
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	var body struct {
		OK  bool   `json:"ok"`
		Env string `json:"env"`
	}
	decode(t, w, &body)
	if !body.OK || body.Env != "test" {
		t.Fatalf("bad health body: %+v", body)
	}
}
