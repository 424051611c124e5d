package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"production-assistant/backend/internal/cache"
	"production-assistant/backend/internal/config"
	"production-assistant/backend/internal/database"
	"production-assistant/backend/internal/handlers"
	"production-assistant/backend/internal/middleware"
	"production-assistant/backend/internal/monitoring"
	"production-assistant/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Local development reads a .env file; in deployment the environment
	// is injected, so a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelDebug
	if cfg.IsProduction() {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	pool, err := database.NewDatabasePool(database.PoolConfigFromApp(cfg))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected", "driver", cfg.Database.Driver)

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(cache.CacheConfigFromApp(cfg))
		defer redisCache.Close()
	}

	taskService := buildTaskService(cfg, redisCache, logger)
	assistant := services.NewOpenAIAssistant(cfg.OpenAI, logger)

	router := buildRouter(cfg, pool, redisCache, taskService, assistant, logger)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func buildTaskService(cfg *config.Config, redisCache *cache.RedisCache, logger *slog.Logger) services.TaskService {
	base := services.NewTaskService()
	if redisCache == nil {
		return base
	}
	if err := redisCache.Health(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
		return base
	}
	logger.Info("task list caching enabled", "ttl", cfg.Redis.ListTTL)
	return services.NewCachedTaskService(base, redisCache, cfg.Redis.ListTTL)
}

func buildRouter(
	cfg *config.Config,
	pool *database.DatabasePool,
	redisCache *cache.RedisCache,
	taskService services.TaskService,
	assistant services.AssistantService,
	logger *slog.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RecoveryWithLog(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	metrics := monitoring.NewMetrics()
	metrics.RegisterExtra("database", pool.Stats)
	router.Use(metrics.Middleware())

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		router.Use(limiter.Middleware())
	}

	healthHandler := handlers.NewHealthHandler(pool, redisCache, cfg, logger)
	taskHandler := handlers.NewTaskHandler(pool.DB, taskService, logger)
	chatHandler := handlers.NewChatHandler(assistant, logger)
	slackHandler := handlers.NewSlackHandler(pool.DB, taskService, assistant, cfg.Slack.TriggerPhrase, logger)

	router.GET("/", healthHandler.Home)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", metrics.Handler())

	router.GET("/tasks", taskHandler.GetTasks)
	router.POST("/tasks", taskHandler.CreateTask)
	router.POST("/chat", chatHandler.Chat)

	slack := router.Group("/slack")
	slack.Use(middleware.SlackVerification(cfg.Slack.SigningSecret, logger))
	{
		slack.POST("/events", slackHandler.Events)
		slack.POST("/commands", slackHandler.Commands)
	}

	return router
}
