package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fooddelivery-cart/internal/cartstore"
	"fooddelivery-cart/internal/domain"
	"github.com/gin-gonic/gin"
)

type stubStore struct {
	state  cartstore.State
	err    error
	events chan cartstore.State

	lastAdd          cartstore.AddItemInput
	lastQty          int
	lastLineID       string
	lastRestaurantID string
	lastFetch        cartstore.FetchOptions
	lastUser         string
	calls            []string
}

func (s *stubStore) State() cartstore.State { return s.state }

func (s *stubStore) Summary() domain.CartSummary { return cartstore.Summarize(s.state.Items) }

func (s *stubStore) Subscribe() (<-chan cartstore.State, func()) {
	if s.events == nil {
		s.events = make(chan cartstore.State)
	}
	return s.events, func() {}
}

func (s *stubStore) AddItem(_ context.Context, in cartstore.AddItemInput, quantity int) error {
	s.calls = append(s.calls, "add")
	s.lastAdd = in
	s.lastQty = quantity
	return s.err
}

func (s *stubStore) UpdateQuantity(_ context.Context, lineID, restaurantID string, quantity int) error {
	s.calls = append(s.calls, "update")
	s.lastLineID = lineID
	s.lastRestaurantID = restaurantID
	s.lastQty = quantity
	return s.err
}

func (s *stubStore) RemoveItem(_ context.Context, lineID, restaurantID string) error {
	s.calls = append(s.calls, "remove")
	s.lastLineID = lineID
	s.lastRestaurantID = restaurantID
	return s.err
}

func (s *stubStore) ClearRestaurant(_ context.Context, restaurantID string) error {
	s.calls = append(s.calls, "clear-restaurant")
	s.lastRestaurantID = restaurantID
	return s.err
}

func (s *stubStore) ClearCart(_ context.Context) error {
	s.calls = append(s.calls, "clear")
	return s.err
}

func (s *stubStore) FetchCart(_ context.Context, opts cartstore.FetchOptions) error {
	s.calls = append(s.calls, "fetch")
	s.lastFetch = opts
	return s.err
}

func (s *stubStore) Login(_ context.Context, userID string) error {
	s.calls = append(s.calls, "login")
	s.lastUser = userID
	return s.err
}

func (s *stubStore) Logout(_ context.Context) error {
	s.calls = append(s.calls, "logout")
	return s.err
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestRouter(t *testing.T, store *stubStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, Deps{Cart: store, CORSOrigins: []string{"http://localhost:5173"}})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouterRequiresStore(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error without a cart store")
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, &stubStore{})
	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	rec := do(router, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "memory") {
		t.Fatalf("unexpected readyz %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(router, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestGetCartRendersView(t *testing.T) {
	store := &stubStore{state: cartstore.State{UserID: "u1", Items: []domain.CartLine{
		{LineID: "p1", Name: "Burger", UnitPrice: 2.5, Quantity: 2, RestaurantID: "r1", RestaurantName: "R1"},
	}}}
	router := newTestRouter(t, store)

	rec := do(router, http.MethodGet, "/cart?force=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.lastFetch.ForceUpdate {
		t.Fatalf("expected forced fetch")
	}
	var view cartView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TotalItems != 2 || view.TotalAmount != 5 || len(view.Restaurants) != 1 || len(view.Lines) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestGetCartUnauthenticated(t *testing.T) {
	router := newTestRouter(t, &stubStore{err: domain.ErrUnauthenticated})
	if rec := do(router, http.MethodGet, "/cart", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAddItemHandler(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(t, store)

	rec := do(router, http.MethodPost, "/cart/items",
		`{"productId":"p1","name":"Burger","price":4.5,"restaurantId":"r1","sizeId":"L","quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastAdd.ProductID != "p1" || store.lastAdd.SizeID != "L" || store.lastQty != 2 {
		t.Fatalf("unexpected add %+v qty %d", store.lastAdd, store.lastQty)
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(t, store)
	do(router, http.MethodPost, "/cart/items", `{"productId":"p1","name":"Burger","restaurantId":"r1"}`)
	if store.lastQty != 1 {
		t.Fatalf("expected default quantity 1, got %d", store.lastQty)
	}
}

func TestMutationErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: quantity", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: add item: boom", domain.ErrMutationFailed), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := newTestRouter(t, &stubStore{err: tc.err})
		rec := do(router, http.MethodPost, "/cart/items", `{"productId":"p1","name":"Burger","restaurantId":"r1"}`)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestUpdateQuantityHandler(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(t, store)

	rec := do(router, http.MethodPatch, "/cart/items/p1::eyJzaXplSWQiOiJMIn0", `{"restaurantId":"r1","quantity":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastLineID != "p1::eyJzaXplSWQiOiJMIn0" || store.lastRestaurantID != "r1" || store.lastQty != 0 {
		t.Fatalf("unexpected update %s %s %d", store.lastLineID, store.lastRestaurantID, store.lastQty)
	}

	if rec := do(router, http.MethodPatch, "/cart/items/p1", `{"restaurantId":"r1"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity, got %d", rec.Code)
	}
}

func TestRemoveAndClearHandlers(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(t, store)

	if rec := do(router, http.MethodDelete, "/cart/items/p1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without restaurantId, got %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/cart/items/p1?restaurantId=r1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/cart/restaurants/r2", ""); rec.Code != http.StatusOK || store.lastRestaurantID != "r2" {
		t.Fatalf("unexpected clear restaurant %d %s", rec.Code, store.lastRestaurantID)
	}
	if rec := do(router, http.MethodDelete, "/cart", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := []string{"remove", "clear-restaurant", "clear"}
	if strings.Join(store.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls %v", store.calls)
	}
}

func TestSessionHandlers(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(t, store)

	if rec := do(router, http.MethodPut, "/session", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPut, "/session", `{"userId":"u1"}`); rec.Code != http.StatusOK || store.lastUser != "u1" {
		t.Fatalf("unexpected login %d %s", rec.Code, store.lastUser)
	}
	if rec := do(router, http.MethodDelete, "/session", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestEventsSendsSnapshot(t *testing.T) {
	store := &stubStore{state: cartstore.State{UserID: "u1"}}
	router := newTestRouter(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/cart/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "event:cart") || !strings.Contains(body, `"userId":"u1"`) {
		t.Fatalf("unexpected stream %q", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &stubStore{})
	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
