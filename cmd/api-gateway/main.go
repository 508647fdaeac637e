package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/internhub/internhub-api/api/swagger"
	"github.com/internhub/internhub-api/internal/handler"
	"github.com/internhub/internhub-api/internal/middleware"
	"github.com/internhub/internhub-api/internal/repository"
	"github.com/internhub/internhub-api/internal/service"
	"github.com/internhub/internhub-api/pkg/cache"
	"github.com/internhub/internhub-api/pkg/config"
	"github.com/internhub/internhub-api/pkg/database"
	"github.com/internhub/internhub-api/pkg/jobs"
	"github.com/internhub/internhub-api/pkg/logger"
	corsmiddleware "github.com/internhub/internhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/internhub/internhub-api/pkg/middleware/requestid"
	"github.com/internhub/internhub-api/pkg/storage"
)

// @title InternHub API
// @version 1.0.0
// @description Internship application lifecycle and reporting service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init attachment storage", "error", err)
	}
	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	misconductRepo := repository.NewMisconductRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	appraisalRepo := repository.NewAppraisalRepository(db)
	supervisorReportRepo := repository.NewSupervisorReportRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	documentJobRepo := repository.NewDocumentJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "internhub-api",
		Audience:          []string{"internhub"},
	})

	directoryService := service.NewDirectoryService(profileRepo, cacheRepo, logr,
		cfg.Reports.ReconcileCacheTTL, cfg.Reports.IdempotencyTTL)

	var notificationService *service.NotificationService
	notificationQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return notificationService.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationService = service.NewNotificationService(notificationRepo, notificationQueue, logr)

	applicationService := service.NewApplicationService(applicationRepo, notificationService, validate, logr)
	offerService := service.NewOfferService(offerRepo, notificationService, validate, logr)
	misconductService := service.NewMisconductService(misconductRepo, directoryService, notificationService, validate, logr)
	progressService := service.NewProgressService(progressRepo, directoryService, notificationService, validate, logr)
	appraisalService := service.NewAppraisalService(appraisalRepo, directoryService, notificationService, validate, logr)
	supervisorReportService := service.NewSupervisorReportService(supervisorReportRepo, notificationService, validate, logr)
	attachmentService := service.NewAttachmentService(attachmentStore, cfg.Attachments.AllowedMIMEs, cfg.Attachments.MaxFileSizeBytes, logr)

	renderService := service.NewRenderService(
		offerRepo, misconductRepo, progressRepo, appraisalRepo,
		documentStore, signer,
		service.RenderConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Documents.SignedURLTTL},
		logr, nil, nil,
	)
	documentWorker := service.NewDocumentWorker(documentJobRepo, renderService, cfg.Documents.WorkerRetries, logr)
	documentQueue := jobs.NewQueue("documents", documentWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Documents.WorkerConcurrency,
		MaxRetries: cfg.Documents.WorkerRetries,
		Logger:     logr,
	})
	documentService := service.NewDocumentService(documentJobRepo, documentQueue, renderService, logr, service.DocumentServiceConfig{
		ResultTTL:       cfg.Documents.SignedURLTTL,
		CleanupInterval: cfg.Documents.CleanupInterval,
		MaxRetries:      cfg.Documents.WorkerRetries,
	})

	metricsService := service.NewMetricsService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	documentQueue.Start(ctx)
	defer documentQueue.Stop()

	documentService.RecoverPendingJobs(ctx)
	documentService.StartCleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:              handler.NewAuthHandler(authService),
		Applications:      handler.NewApplicationHandler(applicationService),
		Offers:            handler.NewOfferHandler(offerService),
		Misconduct:        handler.NewMisconductHandler(misconductService),
		Progress:          handler.NewProgressHandler(progressService),
		Appraisals:        handler.NewAppraisalHandler(appraisalService, attachmentService),
		SupervisorReports: handler.NewSupervisorReportHandler(supervisorReportService),
		Documents:         handler.NewDocumentHandler(documentService),
		Notifications:     handler.NewNotificationHandler(notificationService),
		Metrics:           metricsHandler,
	}, authService)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
