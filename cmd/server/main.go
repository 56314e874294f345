// Package main runs the venue booking HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/venuepilot/backend/config"
	"github.com/venuepilot/backend/internal/auth"
	"github.com/venuepilot/backend/internal/events"
	"github.com/venuepilot/backend/internal/middleware"
	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
	"github.com/venuepilot/backend/internal/sessions"
	"github.com/venuepilot/backend/internal/venues"
	"github.com/venuepilot/backend/pkg/database"
	"github.com/venuepilot/backend/pkg/redis"
	"github.com/venuepilot/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	sessionStore := auth.NewSessionStore(rdb.Client)
	clock := schedule.SystemClock{}
	detector := schedule.NewDetector(pool)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, sessionStore, logger)

	// Venues and spaces
	venueRepo := venues.NewRepository(pool)
	venueHandler := venues.NewHandler(venueRepo, logger)

	// Events and registrations
	eventRepo := events.NewRepository(pool)
	eventService := events.NewService(eventRepo, eventRepo, detector, clock, logger)
	eventHandler := events.NewHandler(eventService, logger)

	// Sessions
	sessionRepo := sessions.NewRepository(pool)
	sessionService := sessions.NewService(sessionRepo, eventRepo, detector, clock, logger)
	sessionHandler := sessions.NewHandler(sessionService, logger)

	jwtValidate := func(token string) (models.Identity, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return models.Identity{}, "", err
		}
		identity := models.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Roles:  claims.Roles,
		}
		return identity, claims.ID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required; mutations are idempotent via X-Request-ID)
	api := router.Group("")
	api.Use(middleware.JWT(jwtValidate, sessionStore))
	api.Use(middleware.Idempotency(rdb.Client, logger))
	{
		api.POST("/auth/logout", authHandler.Logout)

		// Users (admin only)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)

		// Venues and spaces (creation is admin only)
		api.GET("/venues", venueHandler.ListVenues)
		api.POST("/venues", middleware.RequireRole(models.RoleAdmin), venueHandler.CreateVenue)
		api.GET("/venues/:id", venueHandler.GetVenue)
		api.GET("/venues/:id/spaces", venueHandler.ListSpaces)
		api.POST("/venues/:id/spaces", middleware.RequireRole(models.RoleAdmin), venueHandler.CreateSpace)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.Get)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)

		// Event registrations
		api.POST("/events/:id/register", eventHandler.Register)
		api.DELETE("/events/:id/register", eventHandler.Unregister)
		api.GET("/registrations/me", eventHandler.MyRegistrations)

		// Sessions
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.PUT("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)
		api.GET("/sessions/event/:id", sessionHandler.ListByEvent)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
