package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/farmacia-pos/internal/application/service"
	"github.com/sangkips/farmacia-pos/internal/config"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/database"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/farmacia"
	"github.com/sangkips/farmacia-pos/internal/infrastructure/repository"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/handler"
	"github.com/sangkips/farmacia-pos/internal/presentation/http/routes"
	"github.com/sangkips/farmacia-pos/pkg/printer"
	"github.com/sangkips/farmacia-pos/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database (checkout journal and idempotency keys)
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	attemptRepo := repository.NewCheckoutAttemptRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	sessionRepo := newSessionRepository(ctx, &cfg.Session)

	// Pharmacy API client
	api := farmacia.NewClient(farmacia.Config{
		BaseURL:         cfg.Farmacia.BaseURL,
		Timeout:         cfg.Farmacia.Timeout,
		BreakerFailures: cfg.Farmacia.BreakerFailures,
		BreakerOpen:     cfg.Farmacia.BreakerOpen,
	})

	// Initialize thermal printer
	thermalPrinter, err := printer.New(printer.Config{
		Type:    cfg.Printer.Type,
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}

	// Initialize services
	catalogService := service.NewCatalogService(api)
	capabilityService := service.NewCapabilityService(api, cfg.Capability.TTL)
	receiptService := service.NewReceiptService(thermalPrinter, api, service.ReceiptOptions{
		PrinterType: cfg.Printer.Type,
		PaperWidth:  cfg.Printer.Width,
		NameWidth:   cfg.Receipt.NameWidth,
		Fallback: entity.ReceiptHeader{
			StoreName: cfg.Pharmacy.Name,
			Address:   cfg.Pharmacy.Address,
			Phone:     cfg.Pharmacy.Phone,
		},
	})
	checkoutService := service.NewCheckoutService(sessionRepo, attemptRepo, api, catalogService, receiptService)
	salesService := service.NewSalesService(api, catalogService, checkoutService, receiptService)

	// Warm the catalog; the first request retries if this fails
	if _, err := catalogService.Refresh(ctx); err != nil {
		log.Printf("Warning: Initial catalog load failed: %v", err)
	}
	catalogService.StartBackgroundRefresh(ctx, cfg.Catalog.RefreshInterval)
	go purgeIdempotencyKeys(ctx, idempotencyRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Session:  handler.NewSessionHandler(),
		Catalog:  handler.NewCatalogHandler(catalogService, checkoutService),
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Sales:    handler.NewSalesHandler(salesService),
		Printer:  handler.NewPrinterHandler(receiptService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Capabilities:    capabilityService,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// newSessionRepository selects the checkout session store
func newSessionRepository(ctx context.Context, cfg *config.SessionConfig) domainRepo.CheckoutSessionRepository {
	if cfg.Store != "redis" {
		log.Printf("Checkout sessions kept in memory")
		return repository.NewMemorySessionRepository()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	log.Printf("Checkout sessions kept in redis at %s", cfg.RedisAddr)
	return repository.NewRedisSessionRepository(client, cfg.TTL)
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Printf("Failed to purge expired idempotency keys: %v", err)
			}
		}
	}
}
