package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrolink/internal/auth"
	"agrolink/internal/config"
	httpapi "agrolink/internal/http"
	"agrolink/internal/notify"
	"agrolink/internal/repository"
	"agrolink/internal/service"

	_ "agrolink/docs"
)

// @title AgroLink API
// @version 1.0
// @description Backend de marketplace productor-consumidor
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	store := repository.NewMemoryStore()
	usersRepo := repository.NewMemoryUsers(store)
	productsRepo := repository.NewMemoryProducts(store)
	locationsRepo := repository.NewMemoryLocations(store)
	ordersRepo := repository.NewMemoryOrders(store)
	paymentsRepo := repository.NewMemoryPayments(store)
	ratingsRepo := repository.NewMemoryRatings(store)
	tx := repository.NewMemoryTx(store)

	var notifier notify.Notifier = notify.LogOnly{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, service.TokenTTL)
	ordersSvc := service.NewOrderService(productsRepo, ordersRepo, usersRepo, locationsRepo, tx, notifier)

	srv := httpapi.NewServer(cfg, tokens, httpapi.Services{
		Users:     service.NewUserService(usersRepo, tokens),
		Products:  service.NewProductService(productsRepo, usersRepo, locationsRepo),
		Locations: service.NewLocationService(locationsRepo),
		Orders:    ordersSvc,
		Payments:  service.NewPaymentService(paymentsRepo, ordersRepo, ordersSvc, usersRepo, tx, notifier),
		Ratings:   service.NewRatingService(ratingsRepo, ordersRepo),
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
