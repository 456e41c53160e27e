package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fooddelivery-cart/internal/cartparse"
	"fooddelivery-cart/internal/domain"
)

type recorded struct {
	method string
	path   string
	query  string
	body   []byte
	reqID  string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.body, _ = io.ReadAll(r.Body)
		rec.reqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientGetCart(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":{"restaurants":[]}}`)
	c := New(srv.URL+"/", time.Second, nil)

	env, err := c.GetCart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Kind != cartparse.KindCart {
		t.Fatalf("expected cart envelope, got %s", env.Kind)
	}
	if rec.method != http.MethodGet || rec.path != "/cart/u1" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.reqID == "" {
		t.Fatalf("expected request id header")
	}
}

func TestClientAddItemBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"status":"success","data":{"restaurants":[]}}`)
	c := New(srv.URL, time.Second, nil)

	_, err := c.AddItem(context.Background(), "u1", AddItemRequest{
		Restaurant: Restaurant{RestaurantID: "r1", RestaurantName: "R"},
		Item:       Item{ProductID: "p1::abc", ProductName: "Burger", Price: 4.5, Quantity: 2, SizeID: "L"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/cart/u1" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	var got AddItemRequest
	if err := json.Unmarshal(rec.body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Restaurant.RestaurantID != "r1" || got.Item.ProductID != "p1::abc" || got.Item.Quantity != 2 || got.Item.SizeID != "L" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestClientUpdateAndRemovePaths(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"restaurants":[]}`)
	c := New(srv.URL, time.Second, nil)
	ctx := context.Background()

	if _, err := c.UpdateQuantity(ctx, "u1", "r1", "p1", 3, Variant{SizeID: "M", Customizations: "no salt"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.method != http.MethodPatch || rec.path != "/cart/u1/restaurant/r1/item/p1" {
		t.Fatalf("unexpected update request %s %s", rec.method, rec.path)
	}
	if rec.query != "customizations=no+salt&sizeId=M" {
		t.Fatalf("unexpected query %q", rec.query)
	}

	if _, err := c.RemoveItem(ctx, "u1", "r1", "p 2", Variant{}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if rec.method != http.MethodDelete || rec.path != "/cart/u1/restaurant/r1/item/p%202" || rec.query != "" {
		t.Fatalf("unexpected remove request %s %s %s", rec.method, rec.path, rec.query)
	}

	if _, err := c.ClearRestaurant(ctx, "u1", "r1"); err != nil {
		t.Fatalf("clear restaurant: %v", err)
	}
	if rec.path != "/cart/u1/restaurant/r1" {
		t.Fatalf("unexpected clear restaurant path %s", rec.path)
	}

	if _, err := c.ClearCart(ctx, "u1"); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if rec.method != http.MethodDelete || rec.path != "/cart/u1" {
		t.Fatalf("unexpected clear cart request %s %s", rec.method, rec.path)
	}
}

func TestClientNullDataIsEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"status":"success","data":null}`)
	c := New(srv.URL, time.Second, nil)
	env, err := c.RemoveItem(context.Background(), "u1", "r1", "p1", Variant{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Kind != cartparse.KindEmpty {
		t.Fatalf("expected empty envelope, got %s", env.Kind)
	}
}

func TestClientClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusServiceUnavailable, domain.ErrUnavailable},
		{http.StatusBadGateway, domain.ErrUnavailable},
		{http.StatusGatewayTimeout, domain.ErrUnavailable},
	}
	for _, tc := range cases {
		srv, _ := newServer(t, tc.status, `{"message":"nope"}`)
		c := New(srv.URL, time.Second, nil)
		_, err := c.GetCart(context.Background(), "u1")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != tc.status || se.Message != "nope" {
			t.Fatalf("status %d: expected StatusError with message, got %#v", tc.status, err)
		}
	}

	srv, _ := newServer(t, http.StatusBadRequest, `{"error":"bad quantity"}`)
	c := New(srv.URL, time.Second, nil)
	_, err := c.GetCart(context.Background(), "u1")
	var se *StatusError
	if !errors.As(err, &se) || se.Err != nil || se.Message != "bad quantity" {
		t.Fatalf("expected plain StatusError, got %#v", err)
	}
	if domain.IsTransient(err) {
		t.Fatalf("400 must not be transient")
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, nil)
	_, err := c.GetCart(context.Background(), "u1")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
