package main

import (
	"context"
	"errors"
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

	_ "github.com/clockwise-hq/timetrack-api/api/swagger"
	"github.com/clockwise-hq/timetrack-api/internal/handler"
	"github.com/clockwise-hq/timetrack-api/internal/middleware"
	"github.com/clockwise-hq/timetrack-api/internal/repository"
	"github.com/clockwise-hq/timetrack-api/internal/service"
	"github.com/clockwise-hq/timetrack-api/pkg/cache"
	"github.com/clockwise-hq/timetrack-api/pkg/config"
	"github.com/clockwise-hq/timetrack-api/pkg/database"
	"github.com/clockwise-hq/timetrack-api/pkg/jobs"
	"github.com/clockwise-hq/timetrack-api/pkg/logger"
	corsmiddleware "github.com/clockwise-hq/timetrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/clockwise-hq/timetrack-api/pkg/middleware/requestid"
)

// @title TimeTrack API
// @version 0.1.0
// @description Employee time tracking with staggered biweekly pay periods
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	employeeRepo := repository.NewEmployeeRepository(db)
	payPeriodRepo := repository.NewPayPeriodRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	// Services.
	metrics := service.NewMetricsService()

	authSvc := service.NewAuthService(employeeRepo, tokenRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetrack-api",
	})

	payPeriodSvc := service.NewPayPeriodService(payPeriodRepo, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, validate, logr)
	lookupSvc := service.NewLookupService(lookupRepo, validate, logr)
	entrySvc := service.NewEntryService(entryRepo, timesheetRepo, payPeriodRepo, cfg.PayPeriod.MaxDailyHours, validate, logr)

	reportSvc := service.NewReportService(entryRepo, payPeriodRepo, nil, cfg.Reports.CacheTTL, logr)
	if cfg.Reports.CacheEnabled && redisClient != nil {
		reportSvc = service.NewReportService(entryRepo, payPeriodRepo, cacheRepo, cfg.Reports.CacheTTL, logr)
	}
	reportSvc.SetMetrics(metrics)

	var notifier service.TimesheetNotifier
	var notifSvc *service.NotificationService
	if cfg.Notify.Enabled {
		notifSvc = service.NewNotificationService(employeeRepo, service.NewLogMailer(logr), jobs.QueueConfig{
			Workers:    cfg.Notify.Workers,
			MaxRetries: cfg.Notify.MaxRetries,
		}, logr)
		notifSvc.Start(ctx)
		defer notifSvc.Stop()
		notifier = notifSvc
	}

	timesheetSvc := service.NewTimesheetService(timesheetRepo, payPeriodSvc, notifier, reportSvc, validate, logr)
	timesheetSvc.SetMetrics(metrics)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	payPeriodHandler := handler.NewPayPeriodHandler(payPeriodSvc)
	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc, entrySvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	lookupHandler := handler.NewLookupHandler(lookupSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

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

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	periods := authed.Group("/pay-periods")
	{
		periods.GET("", payPeriodHandler.List)
		periods.GET("/current", payPeriodHandler.Current)
		periods.GET("/:id", payPeriodHandler.Get)

		adminPeriods := periods.Group("")
		adminPeriods.Use(middleware.RequireAdmin())
		adminPeriods.POST("", payPeriodHandler.Create)
		adminPeriods.POST("/generate", payPeriodHandler.Generate)
		adminPeriods.PUT("/:id", payPeriodHandler.Update)
		adminPeriods.POST("/:id/close", payPeriodHandler.Close)
		adminPeriods.POST("/:id/process", payPeriodHandler.MarkProcessed)
	}

	sheets := authed.Group("/timesheets")
	{
		sheets.GET("", timesheetHandler.List)
		sheets.GET("/current", timesheetHandler.Current)
		sheets.GET("/:id", timesheetHandler.Get)
		sheets.POST("/:id/submit", timesheetHandler.Submit)

		sheets.GET("/:id/entries", timesheetHandler.ListTimeEntries)
		sheets.POST("/:id/entries", timesheetHandler.CreateTimeEntry)
		sheets.GET("/:id/pto", timesheetHandler.ListPTOEntries)
		sheets.POST("/:id/pto", timesheetHandler.CreatePTOEntry)

		review := sheets.Group("")
		review.Use(middleware.RequireManager())
		review.POST("/:id/approve", timesheetHandler.Approve)
		review.POST("/:id/reject", timesheetHandler.Reject)
		review.POST("/:id/reopen", timesheetHandler.Reopen)
		review.DELETE("/:id", timesheetHandler.Delete)
	}

	authed.PUT("/entries/:entryId", timesheetHandler.UpdateTimeEntry)
	authed.DELETE("/entries/:entryId", timesheetHandler.DeleteTimeEntry)
	authed.PUT("/pto/:entryId", timesheetHandler.UpdatePTOEntry)
	authed.DELETE("/pto/:entryId", timesheetHandler.DeletePTOEntry)

	reports := authed.Group("/reports")
	reports.Use(middleware.RequireManager())
	reports.GET("/pay-periods/:id", reportHandler.PeriodReport)

	authed.GET("/employees/me", employeeHandler.Me)

	employees := authed.Group("/employees")
	employees.Use(middleware.RequireAdmin())
	{
		employees.GET("", employeeHandler.List)
		employees.GET("/:id", employeeHandler.Get)
		employees.POST("", middleware.Audit(auditRepo, "create", "employee"), employeeHandler.Create)
		employees.PUT("/:id", middleware.Audit(auditRepo, "update", "employee"), employeeHandler.Update)
		employees.POST("/:id/deactivate", middleware.Audit(auditRepo, "deactivate", "employee"), employeeHandler.Deactivate)
	}

	registerLookupRoutes(authed, lookupHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func registerLookupRoutes(rg *gin.RouterGroup, h *handler.LookupHandler) {
	admin := middleware.RequireAdmin()

	rg.GET("/clients", h.ListClients)
	rg.POST("/clients", admin, h.CreateClient)
	rg.PUT("/clients/:id", admin, h.UpdateClient)

	rg.GET("/locations", h.ListLocations)
	rg.POST("/locations", admin, h.CreateLocation)
	rg.PUT("/locations/:id", admin, h.UpdateLocation)

	rg.GET("/job-codes", h.ListJobCodes)
	rg.POST("/job-codes", admin, h.CreateJobCode)
	rg.PUT("/job-codes/:id", admin, h.UpdateJobCode)

	rg.GET("/service-types", h.ListServiceTypes)
	rg.POST("/service-types", admin, h.CreateServiceType)
	rg.PUT("/service-types/:id", admin, h.UpdateServiceType)
}
