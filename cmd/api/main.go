package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/cases"
	"skinvault-api/internal/config"
	"skinvault-api/internal/handler"
	"skinvault-api/internal/history"
	"skinvault-api/internal/repository"
	"skinvault-api/internal/router"
	"skinvault-api/internal/scraper"
	"skinvault-api/internal/service"
	"skinvault-api/internal/steam"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting SkinVault API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize price repository based on config
	var priceRepo repository.PriceRepository
	switch cfg.PriceDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresPriceRepository(cfg.PriceDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		priceRepo = pgRepo
		log.Println("PostgreSQL price repository initialized")
	case "mysql":
		myRepo, err := repository.NewMySQLPriceRepository(cfg.PriceDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		defer myRepo.Close()
		priceRepo = myRepo
		log.Println("MySQL price repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLitePriceRepository(cfg.PriceDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		priceRepo = sqliteRepo
		log.Println("SQLite price repository initialized")
	}

	// Initialize price cache
	var priceCache cache.PriceCache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisPriceCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			log.Printf("Warning: Redis cache unavailable, using memory cache: %v", err)
			priceCache = cache.NewMemoryPriceCache(cfg.Cache.TTL)
		} else {
			priceCache = redisCache
			log.Println("Redis price cache initialized")
		}
	default:
		priceCache = cache.NewMemoryPriceCache(cfg.Cache.TTL)
		log.Println("Memory price cache initialized")
	}
	defer priceCache.Close()

	// Marketplace scraper with shared request cadence
	marketClient := scraper.NewClient(scraper.Config{
		RequestDelay: cfg.Steam.RequestDelay,
		MaxJitter:    cfg.Steam.RequestJitter,
		HTTPTimeout:  cfg.Steam.HTTPTimeout,
		DailyLimit:   cfg.Steam.DailyLimit,
	})

	// Price history for outlier correction
	priceHistory := history.NewStore(100, 0)

	// Services
	priceService := service.NewPriceService(priceCache, priceRepo, marketClient, priceHistory, cfg.PriceDB.Staleness)

	inventoryClient := steam.NewInventoryClient(steam.Config{
		HTTPTimeout: cfg.Steam.HTTPTimeout,
		PageDelay:   cfg.Steam.PageDelay,
		MaxPages:    cfg.Steam.MaxPages,
	})
	inventoryService := service.NewInventoryService(inventoryClient, priceService, nil, cfg.Steam.Currency, cfg.Steam.AppID)

	refreshService := service.NewRefreshService(priceRepo, priceService, cfg.Scheduler, cfg.PriceDB.Staleness)

	// Case catalog (optional, the API runs without it)
	var caseHandler *handler.CaseHandler
	catalog, err := cases.LoadCatalog(cfg.App.CasesFile)
	if err != nil {
		log.Printf("Warning: case catalog not loaded: %v", err)
	} else {
		evaluator := cases.NewEvaluator(catalog, priceService, cfg.Steam.Currency, cfg.Steam.AppID)
		caseHandler = handler.NewCaseHandler(evaluator)
		log.Printf("Case catalog loaded: %d cases", catalog.Len())
	}

	// Scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if cfg.Scheduler.Enabled {
		if err := refreshService.Register(schedCtx); err != nil {
			log.Fatalf("Failed to register scheduler tasks: %v", err)
		}
		refreshService.Start()
		defer refreshService.Stop()
	}

	// Handlers
	healthHandler := handler.New(priceService, cfg.PriceDB.Type)
	priceHandler := handler.NewPriceHandler(priceService, cfg.Steam.Currency, cfg.Steam.AppID)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	adminHandler := handler.NewAdminHandler(priceService, refreshService, marketClient, cfg.Steam, cfg.PriceDB.Type)

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		PriceHandler:     priceHandler,
		InventoryHandler: inventoryHandler,
		CaseHandler:      caseHandler,
		AdminHandler:     adminHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
