package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"fooddelivery-cart/internal/cartstore"
	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CartStore is what the facade needs from the cart engine.
type CartStore interface {
	State() cartstore.State
	Summary() domain.CartSummary
	Subscribe() (<-chan cartstore.State, func())
	AddItem(ctx context.Context, in cartstore.AddItemInput, quantity int) error
	UpdateQuantity(ctx context.Context, lineID, restaurantID string, quantity int) error
	RemoveItem(ctx context.Context, lineID, restaurantID string) error
	ClearRestaurant(ctx context.Context, restaurantID string) error
	ClearCart(ctx context.Context) error
	FetchCart(ctx context.Context, opts cartstore.FetchOptions) error
	Login(ctx context.Context, userID string) error
	Logout(ctx context.Context) error
}

// Deps are the collaborators of the router.
type Deps struct {
	Cart        CartStore
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, pool *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Cart == nil {
		return nil, errors.New("cart store is required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metrics.Middleware())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(pool))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &cartHandlers{store: deps.Cart, logger: logger}
	router.PUT("/session", h.login)
	router.DELETE("/session", h.logout)

	cart := router.Group("/cart")
	cart.GET("", h.get)
	cart.DELETE("", h.clearCart)
	cart.GET("/events", h.events)
	cart.POST("/items", h.addItem)
	cart.PATCH("/items/:lineId", h.updateQuantity)
	cart.DELETE("/items/:lineId", h.removeItem)
	cart.DELETE("/restaurants/:restaurantId", h.clearRestaurant)

	return router, nil
}
