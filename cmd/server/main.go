package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mroshb/skill_swap/internal/api"
	"github.com/mroshb/skill_swap/internal/config"
	"github.com/mroshb/skill_swap/internal/database"
	"github.com/mroshb/skill_swap/internal/middleware"
	"github.com/mroshb/skill_swap/internal/repositories"
	"github.com/mroshb/skill_swap/internal/services"
	"github.com/mroshb/skill_swap/pkg/logger"
	"github.com/mroshb/skill_swap/telegram"
)

const shutdownTimeout = 15 * time.Second

// userStore is what the services, the seed and the bot need from a user directory.
type userStore interface {
	services.UserDirectory
	database.UserStore
	telegram.UserLookup
}

type storage struct {
	swaps services.SwapStore
	users userStore
	close func()
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	logger.Info("Starting Skill Swap server...", "env", cfg.AppEnv, "storage", cfg.StorageDriver)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	store, err := openStorage(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", err)
	}
	defer store.close()

	if cfg.SeedDemoUsers {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := database.SeedDemoUsers(ctx, store.users, cfg.JWTSecret, cfg.GetTokenTTL()); err != nil {
			logger.Warn("Failed to seed demo users", "error", err)
		}
		cancel()
	}

	swapService := services.NewSwapService(store.swaps, store.users, cfg.MaxPendingOutgoing)
	adminService := services.NewAdminService(store.swaps, store.users)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, time.Minute)
	defer limiter.Stop()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(swapService, adminService, store.swaps, cfg.StorageDriver)
	router := api.NewRouter(handler, api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		MetricsUser: cfg.MetricsUser,
		MetricsPass: cfg.MetricsPass,
		Limiter:     limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	var bot *telegram.Bot
	if cfg.BotToken != "" {
		bot, err = telegram.InitBot(cfg, swapService, store.users)
		if err != nil {
			logger.Error("Failed to initialize bot, continuing without it", "error", err)
		}
	}

	logger.Info("Server started successfully", "max_pending_outgoing", swapService.MaxPendingOutgoing())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if bot != nil {
		bot.Stop()
	}
	logger.Info("Server stopped")
}

// openStorage builds the backend named by STORAGE_DRIVER. A backend that
// fails to open is fatal; there is no fallback to another driver.
func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &storage{
			swaps: repositories.NewMemorySwapStore(),
			users: repositories.NewMemoryUserDirectory(),
			close: func() {},
		}, nil

	case config.StorageDriverPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		return &storage{
			swaps: repositories.NewSwapRepository(db),
			users: repositories.NewUserRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	default:
		return nil, errors.New("unknown storage driver: " + cfg.StorageDriver)
	}
}
