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
	"go.uber.org/zap"

	_ "github.com/eventmgr/checkin-api/api/swagger"
	"github.com/eventmgr/checkin-api/internal/handler"
	"github.com/eventmgr/checkin-api/internal/middleware"
	"github.com/eventmgr/checkin-api/internal/repository"
	"github.com/eventmgr/checkin-api/internal/service"
	"github.com/eventmgr/checkin-api/pkg/cache"
	"github.com/eventmgr/checkin-api/pkg/config"
	"github.com/eventmgr/checkin-api/pkg/database"
	"github.com/eventmgr/checkin-api/pkg/export"
	"github.com/eventmgr/checkin-api/pkg/logger"
	corsmiddleware "github.com/eventmgr/checkin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eventmgr/checkin-api/pkg/middleware/requestid"
	"github.com/eventmgr/checkin-api/pkg/storage"
)

// @title Event Check-in API
// @version 1.0.0
// @description Admission control and roster import service for event check-in
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
		logr.Sugar().Warnw("redis unavailable, grant cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	fileStore, err := storage.NewLocalStorage(cfg.Imports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare storage directory", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Imports.SignedURLSecret, cfg.Imports.SignedURLTTL)
	badgeSigner := storage.NewSignedURLSigner(cfg.Imports.SignedURLSecret, cfg.Scans.BadgeURLTTL)

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	accessPointRepo := repository.NewAccessPointRepository(db)
	ticketAccessRepo := repository.NewTicketAccessRepository(db)
	scanRepo := repository.NewScanRepository(db)
	stagingRepo := repository.NewStagingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer, validate, logr)
	participantSvc := service.NewParticipantService(participantRepo, validate, logr)
	accessPointSvc := service.NewAccessPointService(accessPointRepo, validate, logr)
	ticketAccessSvc := service.NewTicketAccessService(ticketAccessRepo, cacheRepo, cfg.Grants.CacheTTL, logr)

	var mailer service.Mailer = service.NewLogMailer(logr)
	if cfg.Mail.Enabled {
		mailer = service.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromAddress)
	}
	communicationSvc := service.NewCommunicationService(participantRepo, eventRepo, mailer,
		cfg.Mail.FromAddress, cfg.Mail.Workers, cfg.Mail.MaxRetries, logr)

	badgeSvc := service.NewBadgeService(eventRepo, export.NewBadgeExporter(), fileStore, badgeSigner, cfg.APIPrefix, logr)

	var scanSvc *service.ScanService
	if cfg.Scans.BadgeEnabled {
		scanSvc = service.NewScanService(scanRepo, participantRepo, accessPointRepo, ticketAccessSvc,
			badgeSvc, metricsSvc, validate, logr, cfg.Scans.RecentLimit)
	} else {
		scanSvc = service.NewScanService(scanRepo, participantRepo, accessPointRepo, ticketAccessSvc,
			nil, metricsSvc, validate, logr, cfg.Scans.RecentLimit)
	}

	importSvc := service.NewImportService(stagingRepo, participantRepo, fileStore, export.NewCSVExporter(),
		signer, communicationSvc, metricsSvc, service.ImportConfig{
			APIPrefix:         cfg.APIPrefix,
			MaxFileSizeBytes:  cfg.Imports.MaxFileSizeBytes,
			AllowedExtensions: cfg.Imports.AllowedExtensions,
		}, validate, logr)

	// Background workers.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	communicationSvc.Start(ctx)
	defer communicationSvc.Stop()

	go cleanupLoop(ctx, fileStore, cfg.Imports.CleanupInterval, cfg.Imports.SignedURLTTL, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Scans:        handler.NewScanHandler(scanSvc, badgeSvc),
		Imports:      handler.NewImportHandler(importSvc),
		Participants: handler.NewParticipantHandler(participantSvc, communicationSvc),
		AccessPoints: handler.NewAccessPointHandler(accessPointSvc),
		TicketAccess: handler.NewTicketAccessHandler(ticketAccessSvc),
		Metrics:      metricsHandler,
	}, authSvc)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// cleanupLoop prunes expired badge and report files.
func cleanupLoop(ctx context.Context, store *storage.LocalStorage, interval, ttl time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warn("storage cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				logr.Info("storage cleanup removed files", zap.Int("count", len(deleted)))
			}
		}
	}
}
