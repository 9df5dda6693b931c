package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/lock"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-records-api/pkg/storage"
)

// @title Academic Records API
// @version 1.0.0
// @description Course conclusion, credit equivalency and official document issuance
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; continuing without cache and series lock", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	minRatio, err := decimal.NewFromString(cfg.Equivalency.HigherMinRatio)
	if err != nil {
		logr.Warn("invalid EQUIVALENCY_HIGHER_MIN_RATIO; using default", zap.String("value", cfg.Equivalency.HigherMinRatio))
		minRatio = service.DefaultHigherMinRatio
	}

	files, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()

	tenantRepo := repository.NewTenantRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	equivalencyRepo := repository.NewEquivalencyRepository(db)
	conclusionRepo := repository.NewConclusionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	holdRepo := repository.NewHoldRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	numbers := service.NewNumberGenerator(repository.NewSequenceRepository())
	history := service.NewHistoryService(historyRepo, equivalencyRepo)
	requirements := service.NewRequirementsService(enrollmentRepo, history)
	holds := service.NewHoldService(holdRepo)
	eligibility := service.NewEligibilityValidator(studentRepo, enrollmentRepo, holds, holds, requirements, metricsSvc, logr)

	authSvc := service.NewAuthService(tenantRepo, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	conclusionSvc := service.NewConclusionService(service.ConclusionServiceDeps{
		DB:           db,
		Repo:         conclusionRepo,
		Enrollments:  enrollmentRepo,
		History:      history,
		Eligibility:  eligibility,
		Requirements: requirements,
		Numbers:      numbers,
		Audit:        auditRepo,
		Metrics:      metricsSvc,
		Validator:    validate,
		Logger:       logr,
	})
	equivalencySvc := service.NewEquivalencyService(equivalencyRepo, studentRepo, auditRepo, metricsSvc, validate, logr, minRatio)
	documentSvc := service.NewDocumentService(service.DocumentServiceDeps{
		DB:          db,
		Repo:        documentRepo,
		Tenants:     tenantRepo,
		Students:    studentRepo,
		Eligibility: eligibility,
		Numbers:     numbers,
		Composer:    service.NewDocumentComposer(db, tenantRepo, studentRepo, enrollmentRepo, historyRepo, history, conclusionRepo),
		Storage:     files,
		Signer:      storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL),
		Locker:      seriesLocker(cfg, redisClient, logr),
		Cache:       verificationCache(cfg, redisClient, metricsSvc, logr),
		Audit:       auditRepo,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
		Config: service.DocumentServiceConfig{
			APIPrefix: cfg.APIPrefix,
			CacheTTL:  cfg.Verification.CacheTTL,
		},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		sessions:     authSvc,
		audit:        auditRepo,
		conclusions:  handler.NewConclusionHandler(conclusionSvc),
		equivalences: handler.NewEquivalencyHandler(equivalencySvc),
		documents:    handler.NewDocumentHandler(documentSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func seriesLocker(cfg *config.Config, client *redis.Client, logr *zap.Logger) *lock.SeriesLocker {
	if !cfg.Documents.SeriesLockEnabled || client == nil {
		return nil
	}
	return lock.NewSeriesLocker(client, cfg.Documents.SeriesLockTTL, logr)
}

func verificationCache(cfg *config.Config, client *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Verification.CacheEnabled || client == nil {
		return nil
	}
	return service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Verification.CacheTTL, logr, true)
}
