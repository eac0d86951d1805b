package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/audit"
	"github.com/apipatb/earning-sub014/config"
	"github.com/apipatb/earning-sub014/controller"
	"github.com/apipatb/earning-sub014/db"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/router"
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Postgres
	if err := db.InitPostgres(); err != nil {
		logger.Fatal("Failed to initialize Postgres", zap.Error(err))
	}
	defer db.ClosePostgres()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	storeTimeout := config.GetDuration("authz.storeTimeout")
	counterStore := db.NewRedisCounterStore(db.RedisClient, storeTimeout)

	services, err := service.InitializeServices(
		db.DB,
		counterStore,
		storeTimeout,
		auditService,
		validationUtil,
		cacheService,
		notificationService,
		eventBus,
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	controllers := controller.InitializeControllers(services)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(
		controllers,
		services.RateLimit,
		config.GetInt("authz.httpRateLimit.requests"),
		config.GetInt("authz.httpRateLimit.windowMinutes"),
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
