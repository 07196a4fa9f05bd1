// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/checkout"
	"github.com/your-org/storefront-gateway/internal/domain/offers"
	"github.com/your-org/storefront-gateway/internal/domain/shipping"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-gateway/internal/infrastructure/storage"
	"github.com/your-org/storefront-gateway/internal/interfaces/http"
	"github.com/your-org/storefront-gateway/internal/interfaces/http/routes"
	"github.com/your-org/storefront-gateway/internal/pkg/logger"
	"github.com/your-org/storefront-gateway/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	appLogger.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Open the durable state store
	store, err := storage.NewConnection(cfg)
	if err != nil {
		appLogger.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()

	if err := redisClient.Health(); err != nil {
		appLogger.Fatalf("Redis health check failed: %v", err)
	}
	if err := store.Health(); err != nil {
		appLogger.Fatalf("State store health check failed: %v", err)
	}

	appLogger.Info("✅ All systems operational!")

	// Wire the domain services
	commerceClient := commerce.NewClient(cfg, appLogger)
	sessions := session.NewManager(commerceClient, redisClient, store, cfg, appLogger)
	shippingCalc := shipping.NewCalculator(cfg)
	offersService := offers.NewService(commerceClient, redisClient, cfg, appLogger)
	checkoutService := checkout.NewService(shippingCalc, offersService, appLogger)

	// Evict idle sessions in the background
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	sessions.StartJanitor(janitorCtx, 10*time.Minute)

	// Create and start HTTP server
	server := http.NewServer(cfg, appLogger, redisClient, store, routes.Deps{
		Sessions: sessions,
		Shipping: shippingCalc,
		Offers:   offersService,
		Checkout: checkoutService,
	})

	go func() {
		if err := server.Start(); err != nil {
			appLogger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("👋 Shutting down gracefully...")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	appLogger.Info("✅ Server shutdown completed")
}
