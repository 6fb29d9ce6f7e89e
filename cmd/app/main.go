package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "novelreader-backend/docs"
	"novelreader-backend/internal/common/cache"
	"novelreader-backend/internal/common/config"
	"novelreader-backend/internal/common/logger"
	"novelreader-backend/internal/common/middleware"
	chapterCache "novelreader-backend/internal/features/chapter/cache"
	chapterHTTP "novelreader-backend/internal/features/chapter/delivery/http"
	chapterRepo "novelreader-backend/internal/features/chapter/repository/postgres"
	chapterService "novelreader-backend/internal/features/chapter/service"
	novelHTTP "novelreader-backend/internal/features/novel/delivery/http"
	novelRepo "novelreader-backend/internal/features/novel/repository/postgres"
	novelService "novelreader-backend/internal/features/novel/service"
	paymentHTTP "novelreader-backend/internal/features/payment/delivery/http"
	paymentRepo "novelreader-backend/internal/features/payment/repository/postgres"
	paymentService "novelreader-backend/internal/features/payment/service"
	userHTTP "novelreader-backend/internal/features/user/delivery/http"
	userRepo "novelreader-backend/internal/features/user/repository/postgres"
	userService "novelreader-backend/internal/features/user/service"
	"novelreader-backend/internal/features/user/session"
	walletHTTP "novelreader-backend/internal/features/wallet/delivery/http"
	walletRepo "novelreader-backend/internal/features/wallet/repository/postgres"
	walletService "novelreader-backend/internal/features/wallet/service"
	"novelreader-backend/internal/platform/migrate"
	"novelreader-backend/internal/platform/paypal"
	"novelreader-backend/internal/platform/postgres"
	"novelreader-backend/internal/platform/redis"
)

// @title           Novel Reader API
// @version         1.0
// @description     Backend for the novel reading app. Chapter delivery with caching and prefetch, coin wallet and PayPal coin purchases.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token as "Bearer <token>"

// @tag.name novels
// @tag.description Novel catalog

// @tag.name chapters
// @tag.description Chapter reading, unlocking and cache management

// @tag.name payments
// @tag.description Coin packages and PayPal purchase flow

// @tag.name wallet
// @tag.description Coin balance and ledger history

// @tag.name users
// @tag.description User profiles

func main() {
	cfg := config.Load()

	logger.Init("novelreader-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting Novel Reader Backend")

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	if err := migrate.Up(postgresClient.GetDB(), cfg.Postgres.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	logger.Info().Msg("Database connection established")

	redisClient, err := redis.CreateRedisClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)
	sessionStore := session.NewStore(cacheService, cfg.Cache.SessionTTL)
	paypalClient := paypal.NewClient(cfg)

	if !paypalClient.Configured() {
		logger.Warn().Msg("PayPal credentials missing, purchase endpoints will be unavailable")
	}

	userRepository := userRepo.NewPostgresRepository(postgresClient.GetDB())
	novelRepository := novelRepo.NewPostgresRepository(postgresClient.GetDB())
	chapterRepository := chapterRepo.NewPostgresRepository(postgresClient.GetDB())
	walletRepository := walletRepo.NewPostgresRepository(postgresClient.GetDB())
	paymentRepository := paymentRepo.NewPostgresRepository(postgresClient.GetDB())

	walletSvc := walletService.NewWalletService(walletRepository)
	userSvc := userService.NewUserService(userRepository)
	novelSvc := novelService.NewNovelService(novelRepository)
	chapters := chapterCache.NewChapterCache(cacheService, chapterRepository, cfg.Cache.ChapterTTL)
	chapterSvc := chapterService.NewChapterService(chapterRepository, chapters, walletSvc)
	defer chapterSvc.Close()
	paymentSvc := paymentService.NewPaymentService(paymentRepository, paypalClient, walletSvc, cfg)

	logger.Info().Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Auth(sessionStore))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		novelHTTP.NewNovelHandler(novelSvc).RegisterRoutes(v1)
		chapterHTTP.NewChapterHandler(chapterSvc).RegisterRoutes(v1, cfg.AdminIDs)
		paymentHTTP.NewPaymentHandler(paymentSvc).RegisterRoutes(v1)
		walletHTTP.NewWalletHandler(walletSvc).RegisterRoutes(v1)
		userHTTP.NewUserHandler(userSvc).RegisterRoutes(v1)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, postgresClient, redisClient)

	logger.Info().Msg("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine, postgresClient *postgres.Client, redisClient redis.RedisClient) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "novelreader-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "novelreader-backend",
		})
	})
}
