// Package cartapi is the HTTP client for the backend cart REST API.
// Every cart-returning call hands back a normalized cartparse.Envelope.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fooddelivery-cart/internal/cartparse"
	"fooddelivery-cart/internal/domain"
	"github.com/google/uuid"
)

const maxBodyBytes = 4 << 20

// StatusError is a non-2xx response. Err is a domain sentinel when the
// status maps to one (404, 502/503/504).
type StatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cart api: status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Restaurant identifies the sub-cart an item is added to.
type Restaurant struct {
	RestaurantID   string `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
}

// Item is the line payload of an add call. ProductID is the encoded line id.
type Item struct {
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Customizations string  `json:"customizations,omitempty"`
	CartItemImage  string  `json:"cartItemImage,omitempty"`
	ImageURL       string  `json:"imageURL,omitempty"`
	SizeID         string  `json:"sizeId,omitempty"`
	SizeName       string  `json:"sizeName,omitempty"`
	CategoryID     string  `json:"categoryId,omitempty"`
	CategoryName   string  `json:"categoryName,omitempty"`
}

// AddItemRequest is the body of POST /cart/{userId}.
type AddItemRequest struct {
	Restaurant Restaurant `json:"restaurant"`
	Item       Item       `json:"item"`
}

// Variant carries the size and customization context of update/remove calls.
type Variant struct {
	SizeID         string
	Customizations string
}

func (v Variant) query() url.Values {
	q := url.Values{}
	if v.SizeID != "" {
		q.Set("sizeId", v.SizeID)
	}
	if v.Customizations != "" {
		q.Set("customizations", v.Customizations)
	}
	return q
}

// Client talks to the cart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// New builds a Client. A nil logger discards debug output.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) GetCart(ctx context.Context, userID string) (cartparse.Envelope, error) {
	return c.do(ctx, http.MethodGet, cartPath(userID), nil, nil)
}

func (c *Client) AddItem(ctx context.Context, userID string, in AddItemRequest) (cartparse.Envelope, error) {
	return c.do(ctx, http.MethodPost, cartPath(userID), nil, in)
}

func (c *Client) UpdateQuantity(ctx context.Context, userID, restaurantID, productID string, quantity int, v Variant) (cartparse.Envelope, error) {
	body := struct {
		Quantity       int    `json:"quantity"`
		SizeID         string `json:"sizeId,omitempty"`
		Customizations string `json:"customizations,omitempty"`
	}{Quantity: quantity, SizeID: v.SizeID, Customizations: v.Customizations}
	return c.do(ctx, http.MethodPatch, itemPath(userID, restaurantID, productID), v.query(), body)
}

func (c *Client) RemoveItem(ctx context.Context, userID, restaurantID, productID string, v Variant) (cartparse.Envelope, error) {
	return c.do(ctx, http.MethodDelete, itemPath(userID, restaurantID, productID), v.query(), nil)
}

func (c *Client) ClearRestaurant(ctx context.Context, userID, restaurantID string) (cartparse.Envelope, error) {
	return c.do(ctx, http.MethodDelete, restaurantPath(userID, restaurantID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, userID string) (cartparse.Envelope, error) {
	return c.do(ctx, http.MethodDelete, cartPath(userID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (cartparse.Envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return cartparse.Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return cartparse.Envelope{}, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cartparse.Envelope{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return cartparse.Envelope{}, classifyTransport(err)
	}
	c.logger.Printf("%s %s -> %d (request %s)", method, path, resp.StatusCode, reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cartparse.Envelope{}, statusError(resp.StatusCode, raw)
	}
	return cartparse.Unwrap(raw), nil
}

func statusError(code int, body []byte) error {
	out := &StatusError{StatusCode: code, Message: errorMessage(body)}
	switch code {
	case http.StatusNotFound:
		out.Err = domain.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		out.Err = domain.ErrUnavailable
	case http.StatusRequestTimeout:
		out.Err = domain.ErrTimeout
	}
	return out
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	return ""
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return fmt.Errorf("cart api: %w", err)
}

func cartPath(userID string) string {
	return "/cart/" + url.PathEscape(userID)
}

func restaurantPath(userID, restaurantID string) string {
	return cartPath(userID) + "/restaurant/" + url.PathEscape(restaurantID)
}

func itemPath(userID, restaurantID, productID string) string {
	return restaurantPath(userID, restaurantID) + "/item/" + url.PathEscape(productID)
}
