package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lesson-plan-api/api/swagger"
	"github.com/noah-isme/lesson-plan-api/internal/handler"
	internalmiddleware "github.com/noah-isme/lesson-plan-api/internal/middleware"
	"github.com/noah-isme/lesson-plan-api/internal/repository"
	"github.com/noah-isme/lesson-plan-api/internal/service"
	"github.com/noah-isme/lesson-plan-api/pkg/cache"
	"github.com/noah-isme/lesson-plan-api/pkg/config"
	"github.com/noah-isme/lesson-plan-api/pkg/database"
	"github.com/noah-isme/lesson-plan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lesson-plan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lesson-plan-api/pkg/middleware/requestid"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

// @title Lesson Plan API
// @version 1.0.0
// @description Weekly lesson plans per section with Word, PDF, Excel and AI-assisted exports.
// @BasePath /api
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = database.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		logr.Fatal("failed to prepare schema", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		}
	}

	entries, err := config.LoadUsers(cfg.Users.File)
	if err != nil {
		logr.Fatal("failed to load users", zap.Error(err))
	}
	credentials, err := repository.NewCredentialRepository(entries)
	if err != nil {
		logr.Fatal("invalid users table", zap.Error(err))
	}

	planRepo := repository.NewPlanRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validation.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Plans.CacheTTL, logr, cfg.Plans.CacheEnabled)
	calendarSvc := service.NewCalendarService(cfg.Plans.AcademicYearStart, cfg.Plans.WeekCount)
	planSvc := service.NewPlanService(planRepo, cacheSvc, calendarSvc, validate, metricsSvc, logr, service.PlanServiceConfig{
		CacheTTL:   cfg.Plans.CacheTTL,
		ClassOrder: cfg.Plans.ClassOrder,
	})
	authSvc := service.NewAuthService(credentials, validate, metricsSvc, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(planSvc, calendarSvc, validate, metricsSvc, logr, cfg.Exports.SchoolName)
	lessonSvc := service.NewLessonGeneratorService(service.LessonGeneratorConfig{
		Enabled:  cfg.AI.Enabled,
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
	}, nil, planSvc, validate, metricsSvc, logr)
	if !lessonSvc.Enabled() {
		logr.Info("AI lesson generation disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Routes{
		Auth:     handler.NewAuthHandler(authSvc),
		Plans:    handler.NewPlanHandler(planSvc, calendarSvc),
		Calendar: handler.NewCalendarHandler(calendarSvc),
		Exports:  handler.NewExportHandler(exportSvc),
		Lessons:  handler.NewLessonHandler(lessonSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc, cacheSvc, map[string]handler.Pinger{
			"database": planRepo,
			"cache":    cacheRepo,
		}, logr),
		Tokens:       authSvc,
		LoginLimiter: internalmiddleware.LoginRateLimit(cacheRepo, cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, logr),
		AuditLogger:  logr.Named("audit"),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
