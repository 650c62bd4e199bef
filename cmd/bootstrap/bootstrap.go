package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dirwa-booking/config"
	deliveryHttp "dirwa-booking/internal/delivery/http"
	"dirwa-booking/internal/delivery/http/handler"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/infrastructure/cache"
	"dirwa-booking/internal/infrastructure/database"
	"dirwa-booking/internal/repository"
	"dirwa-booking/internal/service"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/jwt"
	"dirwa-booking/pkg/paymentgateway"
	"dirwa-booking/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Notifier    *service.AsyncDispatcher
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.App.Timezone, err)
	}

	// Initialize database
	if cfg.DB.RunMigrations {
		if err := database.RunMigrations(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Timezone, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis. The calendar cache is optional, so a failed
	// connection only disables it.
	var calendarCache service.CalendarCache = service.NoopCalendarCache{}
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			log.Warnf("Redis unavailable, calendar cache disabled: %+v", err)
		} else {
			app.RedisClient = redisClient
			calendarCache = service.NewRedisCalendarCache(redisClient, cfg.Redis.CalendarTTL, log)
			log.Info("Redis connected successfully")
		}
	}

	// Notifications are sent off the request path
	var notifier service.NotificationDispatcher = service.NewLogNotifier(cfg.Notification.AdminPhone, log)
	if cfg.Notification.RelayURL != "" {
		notifier = service.NewRelayNotifier(cfg.Notification, log)
	}
	app.Notifier = service.NewAsyncDispatcher(notifier, cfg.Notification.Workers, cfg.Notification.QueueSize, cfg.Notification.MaxAttempts, log)

	// Initialize all layers
	app.Server = initializeServer(cfg, log, loc, db, calendarCache, app.Notifier)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	log *logrus.Logger,
	loc *time.Location,
	db *gorm.DB,
	calendarCache service.CalendarCache,
	notifier service.NotificationDispatcher,
) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	bookingRepo := repository.NewBookingRepository()
	slotRepo := repository.NewBookingSlotRepository()
	calendarRepo := repository.NewCalendarRepository()
	catalogRepo := repository.NewCatalogRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	gateway := paymentgateway.NewClient(cfg.Payment, log)
	guard := usecase.NewConflictGuard(slotRepo)

	// Initialize usecases
	calendarUsecase := usecase.NewCalendarUsecase(db, log, loc, calendarRepo, catalogRepo, calendarCache, auditService)
	bookingFactory := usecase.NewBookingFactory(db, log, loc, cfg.App.PartialPaymentRatio, userRepo, bookingRepo, catalogRepo, guard, calendarUsecase, gateway, notifier)
	bookingUsecase := usecase.NewBookingUsecase(db, log, loc, bookingRepo, guard, calendarUsecase, auditService, notifier)
	paymentUsecase := usecase.NewPaymentUsecase(db, log, bookingRepo, gateway, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingFactory, bookingUsecase, customValidator)
	calendarHandler := handler.NewCalendarHandler(calendarUsecase, customValidator)
	paymentHandler := handler.NewPaymentHandler(paymentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins...)

	// Initialize router
	router := deliveryHttp.NewRouter(bookingHandler, calendarHandler, paymentHandler, auditLogHandler, authMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close flushes pending notifications and closes all connections
func (app *App) Close() {
	if app.Notifier != nil {
		app.Notifier.Drain()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
