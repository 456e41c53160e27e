package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fooddelivery-cart/internal/cartapi"
	"fooddelivery-cart/internal/cartstore"
	"fooddelivery-cart/internal/config"
	"fooddelivery-cart/internal/db"
	"fooddelivery-cart/internal/httpserver"
	"fooddelivery-cart/internal/metrics"
	"fooddelivery-cart/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	var dbpool *pgxpool.Pool
	sessions := session.NewMemory()
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		dbpool = pool
		sessions = session.NewPostgres(pool)
	} else {
		logger.Printf("DB_DSN not set, keeping sessions in memory")
	}

	client := cartapi.New(cfg.CartAPIBaseURL, cfg.CartAPITimeout, log.New(os.Stdout, "[cartapi] ", log.LstdFlags|log.LUTC))
	store := cartstore.New(client, cartstore.NewContainer(cartstore.State{}), cartstore.Options{
		Sessions:    sessions,
		SessionKey:  cfg.SessionKey,
		TrustWindow: cfg.TrustWindow,
		Metrics:     metrics.Prometheus{},
		Logger:      logger,
	})
	restored, err := store.Restore(ctx)
	if err != nil {
		logger.Fatalf("restore session: %v", err)
	}
	if restored {
		if err := store.FetchCart(ctx, cartstore.FetchOptions{ForceUpdate: true}); err != nil {
			logger.Printf("initial cart fetch: %v", err)
		}
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Cart:        store,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
