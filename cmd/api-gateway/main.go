package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/trainops/tmc-api/api/swagger"
	"github.com/trainops/tmc-api/internal/handler"
	"github.com/trainops/tmc-api/internal/middleware"
	"github.com/trainops/tmc-api/internal/models"
	"github.com/trainops/tmc-api/internal/repository"
	"github.com/trainops/tmc-api/internal/service"
	"github.com/trainops/tmc-api/pkg/cache"
	"github.com/trainops/tmc-api/pkg/config"
	"github.com/trainops/tmc-api/pkg/database"
	"github.com/trainops/tmc-api/pkg/logger"
	corsmiddleware "github.com/trainops/tmc-api/pkg/middleware/cors"
	reqidmiddleware "github.com/trainops/tmc-api/pkg/middleware/requestid"
	"github.com/trainops/tmc-api/pkg/storage"
)

// @title TMC Demo Review API
// @version 1.0.0
// @description Two-stage demo submission review for the training management console
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, worklist caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	demoRepo := repository.NewDemoRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	notifier := service.NewQueueNotifier(cfg.Notifier, nil, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	worklistSvc := service.NewWorklistService(demoRepo, assignmentRepo, cacheRepo, cfg.Demos.WorklistCacheTTL, logr)
	demoSvc := service.NewDemoService(demoRepo, validate, logr,
		service.WithNotifier(notifier),
		service.WithWorklistInvalidator(worklistSvc),
		service.WithTransitionObserver(metricsSvc),
	)
	exportSvc := service.NewExportService(demoRepo, service.ExportConfig{
		Enabled: cfg.Demos.ExportEnabled,
		MaxRows: cfg.Demos.ExportMaxRows,
	}, logr, nil, nil)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "tmc-api",
	})

	signer := storage.NewMediaTokenSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	demoHandler := handler.NewDemoHandler(demoSvc, signer)
	worklistHandler := handler.NewWorklistHandler(worklistSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	demos := api.Group("/demos", middleware.JWT(authSvc))
	demos.POST("", middleware.RequireRoles(models.RoleTrainee),
		middleware.Audit(auditRepo, models.AuditActionDemoSubmit, "demos"), demoHandler.Create)
	demos.GET("", middleware.RequireRoles(models.RoleTrainee), demoHandler.List)
	demos.GET("/export", middleware.RequireRoles(models.RoleTrainer, models.RoleMasterTrainer),
		middleware.Audit(auditRepo, models.AuditActionDemoExport, "demos"), exportHandler.Export)
	demos.GET("/:id", demoHandler.Get)
	demos.DELETE("/:id", middleware.RequireRoles(models.RoleTrainee),
		middleware.Audit(auditRepo, models.AuditActionDemoWithdraw, "demos"), demoHandler.Withdraw)
	demos.POST("/:id/trainer-review", middleware.RequireRoles(models.RoleTrainer),
		middleware.Audit(auditRepo, models.AuditActionDemoReview, "demos"), demoHandler.TrainerReview)
	demos.POST("/:id/master-review", middleware.RequireRoles(models.RoleMasterTrainer),
		middleware.Audit(auditRepo, models.AuditActionDemoReview, "demos"), demoHandler.MasterReview)
	demos.GET("/:id/content-link", demoHandler.ContentLink)

	worklists := api.Group("/worklists", middleware.JWT(authSvc))
	worklists.GET("/trainer", middleware.RequireRoles(models.RoleTrainer), worklistHandler.TrainerPending)
	worklists.GET("/trainer/history", middleware.RequireRoles(models.RoleTrainer), worklistHandler.TrainerHistory)
	worklists.GET("/master", middleware.RequireRoles(models.RoleMasterTrainer), worklistHandler.MasterQueue)

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
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
