package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidzonehq/kidzone-backend/internal/chat"
	"github.com/kidzonehq/kidzone-backend/internal/config"
	"github.com/kidzonehq/kidzone-backend/internal/database"
	"github.com/kidzonehq/kidzone-backend/internal/handlers"
	"github.com/kidzonehq/kidzone-backend/internal/middleware"
	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/routes"
	"github.com/kidzonehq/kidzone-backend/internal/store"
	"github.com/kidzonehq/kidzone-backend/pkg/logger"
)

func main() {
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting KidZone Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Conversation{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().Msg("Database migrations complete")

	// Messaging core wiring: hub for live updates, store over the DB,
	// process-local optimistic buffer.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	hub := store.NewHub(database.Redis, logger.With("hub"))
	go hub.Run(rootCtx)

	st := store.New(database.DB, hub, logger.With("store"))
	buffer := chat.NewBuffer()
	sender := chat.NewSender(st, buffer, hub.Publish, logger.With("chat"))
	deleter := chat.NewDeleter(st, hub.Publish, logger.With("chat"))

	handlers.InitChat(&handlers.ChatDeps{
		Store:          st,
		Hub:            hub,
		Buffer:         buffer,
		Sender:         sender,
		Deleter:        deleter,
		DeleteSummary:  config.AppConfig.ChatDeleteSummary,
		PendingTimeout: config.AppConfig.ChatPendingTimeout,
	})

	r := gin.Default()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Exempt /socket.io from rate limiting
	r.Use(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 10 && c.Request.URL.Path[:10] == "/socket.io" {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		routes.RegisterChatRoutes(api)
	}

	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || (redisStatus != "ok" && redisStatus != "not configured") {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	socketServer := handlers.InitSocketServer()
	defer socketServer.Close()

	r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
	r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))

	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
