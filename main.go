// Package main provides the main entry point for the Kusanagi pricing service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Kusanagi/app/handlers"
	"github.com/amirphl/Kusanagi/app/router"
	"github.com/amirphl/Kusanagi/app/scheduler"
	"github.com/amirphl/Kusanagi/app/services"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	bus       services.EventBus
	stopFuncs []func()
	closers   []io.Closer
}

func main() {
	log.Println("Starting Kusanagi pricing service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser := initializeLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting requests before draining the cascade queue
	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	if err := app.bus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			log.Printf("Error closing resource: %v", err)
		}
	}

	log.Println("Server stopped")
	if logCloser != nil {
		_ = logCloser.Close()
	}
}

// initializeLogging points the standard logger at a rotating file when configured
func initializeLogging(cfg config.LoggingConfig) io.Closer {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return nil
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotating))
	} else {
		log.SetOutput(rotating)
	}
	return rotating
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeEventBus creates the change event transport
func initializeEventBus(cfg *config.ProductionConfig) (services.EventBus, error) {
	switch cfg.Events.Provider {
	case "kafka":
		bus, err := services.NewKafkaEventBus(services.KafkaEventBusConfig{
			Brokers: cfg.Events.KafkaBrokers,
			Topic:   cfg.Events.KafkaTopic,
			GroupID: cfg.Events.KafkaGroupID,
			MaxWait: cfg.Events.KafkaMaxWait,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kafka event bus: %w", err)
		}
		log.Printf("Kafka event bus initialized (topic=%s, group=%s)", cfg.Events.KafkaTopic, cfg.Events.KafkaGroupID)
		return bus, nil
	default:
		log.Printf("In-memory event bus initialized (queue size %d)", cfg.Pricing.CascadeQueueSize)
		return services.NewMemoryEventBus(cfg.Pricing.CascadeQueueSize), nil
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()
	var closers []io.Closer

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
		closers = append(closers, rc)
	}

	// Initialize repositories
	groupRepo := repository.NewChannelGroupRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	freightRepo := repository.NewFreightTableRepository(db)
	feeRepo := repository.NewFeeTableRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRecordRepo := repository.NewPriceRecordRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)

	if cfg.Pricing.EnsureDefaultGroup {
		if err := ensureDefaultChannelGroup(groupRepo, cfg.Pricing.DefaultGroupName); err != nil {
			return nil, fmt.Errorf("failed to ensure default channel group: %w", err)
		}
	}

	historyMode, err := businessflow.ParseHistoryMode(cfg.Pricing.HistoryMode)
	if err != nil {
		return nil, err
	}

	// Record locks span instances only when redis is available
	var locker businessflow.RecordLocker
	if rc != nil {
		locker = businessflow.NewRedisRecordLocker(rc, cfg.Cache.RedisPrefix, cfg.Pricing.LockTTL)
	} else {
		locker = businessflow.NewLocalRecordLocker()
	}

	bus, err := initializeEventBus(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize flows
	tx := businessflow.NewGormTransactor(db)
	loader := businessflow.NewCatalogLoader(groupRepo, channelRepo, freightRepo, feeRepo)

	recalcFlow := businessflow.NewRecalculationFlow(
		priceRecordRepo,
		productRepo,
		historyRepo,
		loader,
		tx,
		locker,
		bus,
		historyMode,
	)

	cascadeFlow := businessflow.NewCascadeFlow(
		recalcFlow,
		loader,
		priceRecordRepo,
		channelRepo,
		cfg.Pricing.CascadeConcurrency,
	)

	catalogFlow := businessflow.NewCatalogFlow(
		groupRepo,
		channelRepo,
		freightRepo,
		feeRepo,
		productRepo,
		priceRecordRepo,
		loader,
		recalcFlow,
		tx,
		locker,
		bus,
	)

	reportFlow := businessflow.NewPriceReportFlow(priceRecordRepo, historyRepo, productRepo, channelRepo)

	// Initialize handlers
	pricingHandler := handlers.NewPricingHandler(catalogFlow, recalcFlow, reportFlow, bus)

	// Initialize router
	appRouter := router.NewFiberRouter(cfg, pricingHandler)

	// Start cascade worker
	worker := scheduler.NewCascadeWorker(bus, cascadeFlow, cfg.Pricing.CascadeTimeout, cfg.Logging)
	stopFuncs = append(stopFuncs, worker.Start(context.Background()))

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		bus:       bus,
		stopFuncs: stopFuncs,
		closers:   closers,
	}

	return application, nil
}

// ensureDefaultChannelGroup creates the default group on an empty catalog
func ensureDefaultChannelGroup(groupRepo repository.ChannelGroupRepository, name string) error {
	ctx := context.Background()
	groups, err := groupRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.IsDefault {
			return nil
		}
	}

	group := &models.ChannelGroup{
		Name:         name,
		Description:  "Default channel group",
		IsDefault:    true,
		CostStrategy: models.CostStrategyOwnCost,
	}
	if err := groupRepo.Save(ctx, group); err != nil {
		return err
	}
	log.Printf("Default channel group %q created (id=%d)", name, group.ID)
	return nil
}
