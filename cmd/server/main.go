package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/cache"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/email"
	"github.com/snapline/backend/internal/handlers"
	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/metrics"
	"github.com/snapline/backend/internal/middleware"
	"github.com/snapline/backend/internal/presence"
	"github.com/snapline/backend/internal/storage"
	"github.com/snapline/backend/internal/telemetry"
	"github.com/snapline/backend/internal/util"
	"github.com/snapline/backend/internal/websocket"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		// Not an error in containerized deployments
		os.Stderr.WriteString("no .env file found, using system environment\n")
	}

	if err := logger.Initialize(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FILE", "server.log")); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("Snapline server starting")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Prometheus registry
	metrics.Initialize()

	// Distributed tracing (no-op unless OTEL_ENABLED=true)
	samplingRate, _ := strconv.ParseFloat(getEnv("OTEL_SAMPLING_RATE", "0.1"), 64)
	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "snapline-backend",
		Environment:  getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		Enabled:      getEnv("OTEL_ENABLED", "false") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	// Auth service with separate session and reset secrets
	sessionSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(sessionSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	resetSecret := []byte(os.Getenv("JWT_RESET_SECRET"))
	if len(resetSecret) == 0 {
		resetSecret = sessionSecret
	}
	authService := auth.NewService(sessionSecret, resetSecret)

	// Image storage: S3 in production, in-memory mock for local dev
	var uploader storage.ImageUploader
	if bucket := os.Getenv("AWS_BUCKET"); bucket != "" {
		s3Uploader, err := storage.NewS3Uploader(
			getEnv("AWS_REGION", "us-east-1"),
			bucket,
			os.Getenv("CDN_BASE_URL"),
		)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 uploader", err)
		}
		if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.WarnWithFields("S3 bucket access failed, image uploads will fail", err)
		}
		uploader = s3Uploader
	} else {
		logger.Log.Warn("AWS_BUCKET not set, using in-memory image storage")
		uploader = storage.NewMockUploader()
	}

	// WebSocket hub with in-memory presence tracking
	wsHub := websocket.NewHub(presence.NewMemoryStore())
	go wsHub.Run()
	wsHandler := websocket.NewHandler(wsHub)

	h := handlers.NewHandlers(authService, uploader)
	h.SetWebSocketHandler(wsHandler)
	h.SetCookieConfig(os.Getenv("COOKIE_DOMAIN"), getEnv("COOKIE_SECURE", "true") == "true")

	// Transactional email via SES when configured
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		emailService, err := email.NewEmailService(
			getEnv("AWS_REGION", "us-east-1"),
			from,
			getEnv("EMAIL_FROM_NAME", "Snapline"),
			getEnv("APP_BASE_URL", "http://localhost:3000"),
		)
		if err != nil {
			logger.WarnWithFields("SES unavailable, password reset emails disabled", err)
		} else {
			h.SetEmailSender(emailService)
		}
	}

	// Redis feed cache, optional
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisClient, err := cache.NewRedisClient(redisHost, getEnv("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.WarnWithFields("Redis unavailable, feed caching disabled", err)
		} else {
			h.SetRedisClient(redisClient)
			defer redisClient.Close()
		}
	}

	gin.SetMode(getEnv("GIN_MODE", gin.DebugMode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("snapline-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnv("CORS_ORIGIN", "http://localhost:3000")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Health and metrics
	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "snapline-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guard := authService.Middleware()

	api := r.Group("/api/v1")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.Signup)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/reset-password", h.ResetPassword)

			authGroup.GET("/logout", guard, h.Logout)
			authGroup.GET("/me", guard, h.Me)
		}

		// User routes
		users := api.Group("/users")
		{
			users.Use(guard)
			users.GET("/:username", h.GetProfile)
			users.GET("/:username/posts", h.GetUserPosts)
		}

		// Account routes
		accounts := api.Group("/accounts")
		{
			accounts.Use(guard)
			accounts.PUT("/edit", h.UpdateProfile)
			accounts.GET("/suggested-users", h.SuggestedUsers)
			accounts.PUT("/follow-unfollow/:username", h.FollowUnfollow)
			accounts.GET("/bookmarks", h.GetBookmarks)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.Use(guard)
			posts.POST("/create-post", h.CreatePost)
			posts.GET("", h.GetAllPosts)
			posts.PUT("/:id/like", h.LikeUnlike)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
			posts.PUT("/:id/bookmark", h.ToggleBookmark)
		}

		// Direct message routes
		messages := api.Group("/messages")
		{
			messages.Use(guard)
			messages.POST("/send-message/user/:id", h.SendMessage)
			messages.GET("/conversation/user/:id", h.GetConversation)
		}

		// WebSocket routes
		ws := api.Group("/ws")
		{
			// Connection endpoint identifies the user via ?userId=
			ws.GET("", wsHandler.HandleWebSocket)

			ws.GET("/online", guard, h.GetOnlineUsers)
			ws.GET("/metrics", guard, wsHandler.HandleMetrics)
			ws.POST("/online", guard, wsHandler.HandleOnlineStatus)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		util.RespondNotFound(c, "route")
	})

	port := getEnv("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Snapline backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.WarnWithFields("WebSocket shutdown incomplete", err)
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.WarnWithFields("Tracer shutdown incomplete", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
