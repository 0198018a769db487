package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gospelline/storefront/internal/config"
	"github.com/gospelline/storefront/internal/es"
	"github.com/gospelline/storefront/internal/events"
	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/handlers/cart"
	"github.com/gospelline/storefront/internal/handlers/checkout"
	"github.com/gospelline/storefront/internal/handlers/library"
	"github.com/gospelline/storefront/internal/handlers/notifications"
	"github.com/gospelline/storefront/internal/handlers/saved"
	"github.com/gospelline/storefront/internal/handlers/webhook"
	"github.com/gospelline/storefront/internal/logging"
	"github.com/gospelline/storefront/internal/paystack"
	"github.com/gospelline/storefront/internal/realtime"
	"github.com/gospelline/storefront/internal/redisclient"
	"github.com/gospelline/storefront/internal/service/token"
	httpserver "github.com/gospelline/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		logger.Warn("kafka unavailable, events disabled", "error", err)
		prod = nil
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	var guestStore saved.GuestStore
	if rdb, err := redisclient.New(configuration); err != nil {
		logger.Warn("redis unavailable, guest saved items disabled", "error", err)
	} else {
		guestStore = &saved.RedisGuestStore{Client: rdb}
	}

	hub := realtime.NewHub()
	gateway := paystack.NewClient(configuration.PAYSTACK_BASE_URL, configuration.PAYSTACK_SECRET_KEY)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:             db,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProfileHandler: &handlers.ProfileHandler{DB: db, JWTSecret: jwtSecret},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: es.ProductIndex},
		BrandHandler:   &handlers.BrandHandler{DB: db},
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod, JWTSecret: jwtSecret},
		SavedHandler:   &saved.SavedHandler{DB: db, Guests: guestStore, Producer: prod, JWTSecret: jwtSecret},
		CheckoutHandler: &checkout.CheckoutHandler{
			DB:         db,
			Paystack:   gateway,
			Producer:   prod,
			JWTSecret:  jwtSecret,
			AppBaseURL: configuration.APP_BASE_URL,
		},
		WebhookHandler: &webhook.PaystackHandler{
			DB:       db,
			Secret:   []byte(configuration.PAYSTACK_SECRET_KEY),
			Hub:      hub,
			Producer: prod,
		},
		NotificationHandler: &notifications.NotificationHandler{DB: db, Hub: hub, JWTSecret: jwtSecret},
		LibraryHandler:      &library.LibraryHandler{DB: db, JWTSecret: jwtSecret},
		ServiceHandler:      &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
