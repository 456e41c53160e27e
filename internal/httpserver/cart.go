package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"fooddelivery-cart/internal/cartstore"
	"fooddelivery-cart/internal/domain"
	"github.com/gin-gonic/gin"
)

type cartHandlers struct {
	store  CartStore
	logger *log.Logger
}

type loginRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type addItemRequest struct {
	cartstore.AddItemInput
	Quantity int `json:"quantity"`
}

type updateQuantityRequest struct {
	RestaurantID string `json:"restaurantId" binding:"required"`
	Quantity     *int   `json:"quantity" binding:"required"`
}

// cartView is the rendered cart the UI consumes.
type cartView struct {
	UserID      string                     `json:"userId,omitempty"`
	Lines       []domain.CartLine          `json:"lines"`
	Restaurants []domain.RestaurantSummary `json:"restaurants"`
	TotalItems  int                        `json:"totalItems"`
	TotalAmount float64                    `json:"totalAmount"`
	Adding      bool                       `json:"adding"`
	Updating    bool                       `json:"updating"`
	Loading     bool                       `json:"loading"`
}

func newCartView(st cartstore.State) cartView {
	sum := cartstore.Summarize(st.Items)
	lines := st.Items
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartView{
		UserID:      st.UserID,
		Lines:       lines,
		Restaurants: sum.Restaurants,
		TotalItems:  sum.TotalItems,
		TotalAmount: sum.TotalAmount,
		Adding:      st.Adding(),
		Updating:    st.Updating(),
		Loading:     st.Loading(),
	}
}

// detached keeps a mutation running when the client goes away.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *cartHandlers) render(c *gin.Context, status int) {
	c.JSON(status, newCartView(h.store.State()))
}

func (h *cartHandlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMutationFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case domain.IsTransient(err):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Printf("cart request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *cartHandlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Login(detached(c), req.UserID); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK)
}

func (h *cartHandlers) logout(c *gin.Context) {
	if err := h.store.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *cartHandlers) get(c *gin.Context) {
	opts := cartstore.FetchOptions{ForceUpdate: strings.EqualFold(c.Query("force"), "true")}
	if err := h.store.FetchCart(c.Request.Context(), opts); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.fail(c, err)
			return
		}
		// Local state is still the best answer.
		h.logger.Printf("fetch cart: %v", err)
	}
	h.render(c, http.StatusOK)
}

func (h *cartHandlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.store.AddItem(detached(c), req.AddItemInput, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusCreated)
}

func (h *cartHandlers) updateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.UpdateQuantity(detached(c), c.Param("lineId"), req.RestaurantID, *req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK)
}

func (h *cartHandlers) removeItem(c *gin.Context) {
	restaurantID := strings.TrimSpace(c.Query("restaurantId"))
	if restaurantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantId query parameter is required"})
		return
	}
	if err := h.store.RemoveItem(detached(c), c.Param("lineId"), restaurantID); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK)
}

func (h *cartHandlers) clearRestaurant(c *gin.Context) {
	if err := h.store.ClearRestaurant(detached(c), c.Param("restaurantId")); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK)
}

func (h *cartHandlers) clearCart(c *gin.Context) {
	if err := h.store.ClearCart(detached(c)); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK)
}
