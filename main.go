package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Dakudbilla/DevConnect/config"
	"github.com/Dakudbilla/DevConnect/database"
	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/middleware"
	"github.com/Dakudbilla/DevConnect/routes"
	"github.com/Dakudbilla/DevConnect/service"
	"github.com/Dakudbilla/DevConnect/token"
)

func main() {
	cfg, err := config.NewConfig(".env")
	if err != nil {
		logger.New(0).Fatal("invalid configuration", "error", err.Error())
	}

	log := logger.NewWithFormat(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting DevConnect backend", "env", cfg.Env, "port", cfg.Port)

	// ===== CONNECT TO MONGODB WITH RETRY =====
	var db *database.Database
	for i := 1; i <= 3; i++ {
		db, err = database.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database, log)
		if err == nil {
			break
		}
		log.Warn("MongoDB connection attempt failed", "attempt", i, "error", err.Error())
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err.Error())
	}

	if err := db.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to create MongoDB indexes", "error", err.Error())
	}

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	tokens := token.NewJWT(cfg.JWT.Secret, token.DefaultTTL)
	users := database.NewUserStore(db)
	profiles := database.NewProfileStore(db)
	posts := database.NewPostStore(db)

	// ===== GIN MODE =====
	if cfg.GinMode == gin.ReleaseMode || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	router := routes.SetupRouter(routes.Dependencies{
		Logger:         log,
		Tokens:         tokens,
		Limiter:        limiter,
		Auth:           service.NewAuth(users, tokens, log, cfg.BcryptCost),
		Profiles:       service.NewProfiles(users, profiles, posts, log),
		Posts:          service.NewPosts(users, posts, log),
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", "error", err.Error())
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", "error", err.Error())
	}
	if err := db.Disconnect(context.Background()); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err.Error())
	}

	log.Info("Server stopped gracefully")
}

// newLimiter uses Redis when REDIS_URL is set and reachable, and process memory otherwise.
func newLimiter(cfg *config.Config, log *logger.Logger) (middleware.Limiter, func()) {
	memory := middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if cfg.RedisURL == "" {
		return memory, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Invalid REDIS_URL, using in-memory rate limiter", "error", err.Error())
		return memory, func() {}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, using in-memory rate limiter", "error", err.Error())
		_ = rdb.Close()
		return memory, func() {}
	}

	log.Info("Using Redis rate limiter")
	return middleware.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window), func() { _ = rdb.Close() }
}
