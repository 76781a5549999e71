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

	_ "github.com/noah-isme/interview-scheduler-api/api/swagger"
	"github.com/noah-isme/interview-scheduler-api/internal/handler"
	"github.com/noah-isme/interview-scheduler-api/internal/middleware"
	"github.com/noah-isme/interview-scheduler-api/internal/repository"
	"github.com/noah-isme/interview-scheduler-api/internal/service"
	"github.com/noah-isme/interview-scheduler-api/pkg/config"
	"github.com/noah-isme/interview-scheduler-api/pkg/database"
	"github.com/noah-isme/interview-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/interview-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/interview-scheduler-api/pkg/middleware/requestid"
	rediscache "github.com/noah-isme/interview-scheduler-api/pkg/cache"
	"github.com/noah-isme/interview-scheduler-api/pkg/storage"
)

// @title Interview Scheduler API
// @version 1.0.0
// @description Two-interviewer slot scheduling with availability-driven strategies
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

	startDate, err := time.Parse("2006-01-02", cfg.Scheduler.StartDate)
	if err != nil {
		logr.Sugar().Fatalw("invalid schedule start date", "value", cfg.Scheduler.StartDate, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metricsService := service.NewMetricsService()

	candidateRepo := repository.NewCandidateRepository(db)
	interviewerRepo := repository.NewInterviewerRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	historyRepo := repository.NewActionHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr).WithMetrics(metricsService)

	schedulerCfg := service.SchedulerConfig{
		StartDate:   startDate,
		HorizonDays: cfg.Scheduler.HorizonDays,
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "interview-scheduler-api",
	})
	candidateService := service.NewCandidateService(candidateRepo, cacheRepo, validate, logr)
	interviewerService := service.NewInterviewerService(interviewerRepo, cacheRepo, validate, logr)
	schedulerService := service.NewSchedulerService(candidateRepo, interviewerRepo, interviewRepo, db, cacheRepo, validate, logr, schedulerCfg).WithMetrics(metricsService)
	compareService := service.NewCompareService(candidateRepo, interviewerRepo, logr, schedulerCfg)
	interviewService := service.NewInterviewService(interviewRepo, candidateRepo, historyRepo, db, cacheRepo, logr, service.InterviewConfig{
		StartDate: startDate,
		CacheTTL:  cfg.Dashboard.CacheTTL,
	})
	rescheduleService := service.NewRescheduleService(interviewRepo, candidateRepo, interviewerRepo, historyRepo, db, cacheRepo, logr, service.RescheduleConfig{
		StartDate:   startDate,
		HorizonDays: cfg.Scheduler.HorizonDays,
		Cooldown:    cfg.Scheduler.RescheduleCooldown,
	}).WithMetrics(metricsService)

	var reportService *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		reportService = service.NewReportService(reportRepo, interviewRepo, compareService, store, validate, logr, service.ReportConfig{
			WorkerConcurrency: cfg.Reports.WorkerConcurrency,
			WorkerRetries:     cfg.Reports.WorkerRetries,
			DownloadBasePath:  cfg.APIPrefix + "/reports",
			CleanupInterval:   cfg.Reports.CleanupInterval,
			Retention:         cfg.Reports.Retention,
		})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Candidate:   handler.NewCandidateHandler(candidateService),
		Interviewer: handler.NewInterviewerHandler(interviewerService),
		Schedule:    handler.NewScheduleHandler(schedulerService, compareService),
		Interview:   handler.NewInterviewHandler(interviewService, rescheduleService),
	}
	if reportService != nil {
		handlers.Report = handler.NewReportHandler(reportService)
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if reportService != nil {
		reportService.Start(ctx)
		defer reportService.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
