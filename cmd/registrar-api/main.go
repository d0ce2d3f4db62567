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

	_ "github.com/richwell-portal/registrar-api/api/swagger"
	"github.com/richwell-portal/registrar-api/internal/handler"
	"github.com/richwell-portal/registrar-api/internal/middleware"
	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/repository"
	"github.com/richwell-portal/registrar-api/internal/service"
	"github.com/richwell-portal/registrar-api/pkg/cache"
	"github.com/richwell-portal/registrar-api/pkg/config"
	"github.com/richwell-portal/registrar-api/pkg/database"
	"github.com/richwell-portal/registrar-api/pkg/export"
	"github.com/richwell-portal/registrar-api/pkg/jobs"
	"github.com/richwell-portal/registrar-api/pkg/logger"
	corsmiddleware "github.com/richwell-portal/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/richwell-portal/registrar-api/pkg/middleware/requestid"
)

// @title Richwell Registrar API
// @version 0.1.0
// @description Enrollment eligibility and prerequisite resolution for the registrar portal
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
		logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	termRepo := repository.NewTermRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	auditSvc := service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
	}, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "registrar-api",
	})
	studentSvc := service.NewStudentService(studentRepo, curriculumRepo, logr)
	levelSvc := service.NewLevelService(attemptRepo, curriculumRepo, logr)
	prereqSvc := service.NewPrereqService(subjectRepo, attemptRepo, gradeRepo, logr)
	availabilitySvc := service.NewAvailabilityService(levelSvc, prereqSvc, curriculumRepo, attemptRepo, cacheRepo, cfg.Enrollment.AvailabilityCacheTTL, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, attemptRepo, settingRepo, subjectRepo, sectionRepo, prereqSvc, levelSvc, auditSvc, cacheRepo, logr)
	termSvc := service.NewTermService(termRepo, auditSvc, logr)
	gradeSvc := service.NewGradeService(attemptRepo, gradeRepo, auditSvc, validate, logr)
	settingSvc := service.NewSettingService(settingRepo, auditSvc, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, auditSvc, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(studentSvc, termSvc, enrollmentSvc, availabilitySvc, metricsSvc, userRepo, export.NewCORExporter())
	subjectHandler := handler.NewSubjectHandler(subjectRepo, prereqSvc, studentSvc)
	termHandler := handler.NewTermHandler(termSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	settingHandler := handler.NewSettingHandler(settingSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	csvExporter := export.NewCSVExporter()
	auditHandler := handler.NewAuditHandler(auditSvc, csvExporter)
	sectionHandler := handler.NewSectionHandler(sectionSvc, csvExporter)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
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

	authed := api.Group("", middleware.JWT(authSvc))

	students := authed.Group("/students", middleware.RequireRoles(models.RoleStudent))
	students.GET("/me", studentHandler.Me)
	students.POST("/me/onboarding", studentHandler.CompleteOnboarding)

	enrollment := authed.Group("/enrollment", middleware.RequireRoles(models.RoleStudent))
	enrollment.GET("/eligibility", enrollmentHandler.Eligibility)
	enrollment.GET("/subjects", enrollmentHandler.Subjects)
	enrollment.POST("/confirm", enrollmentHandler.Confirm)
	enrollment.GET("/me", enrollmentHandler.Me)
	enrollment.GET("/me/cor", enrollmentHandler.CertificateOfRegistration)

	subjects := authed.Group("/subjects")
	subjects.GET("/:id/prerequisites", subjectHandler.Prerequisites)
	subjects.GET("/:id/eligibility", middleware.RequireRoles(models.RoleStudent), subjectHandler.Eligibility)

	terms := authed.Group("/terms")
	terms.GET("", termHandler.List)
	terms.POST("/:id/activate", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin), termHandler.Activate)
	terms.POST("/:id/close", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin), termHandler.Close)

	grades := authed.Group("/grades", middleware.RequireRoles(models.RoleProfessor, models.RoleRegistrar))
	grades.POST("", gradeHandler.Post)

	settings := authed.Group("/settings", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin))
	settings.GET("", settingHandler.List)
	settings.PUT("", settingHandler.Update)

	sections := authed.Group("/sections", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin, models.RoleProfessor))
	sections.GET("", sectionHandler.List)
	sections.GET("/:id/class-list", sectionHandler.ClassList)
	sections.PATCH("/:id/status", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin), sectionHandler.SetStatus)

	audit := authed.Group("/audit", middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin))
	audit.GET("", auditHandler.History)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
