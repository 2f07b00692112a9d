package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/instructor-eval-api/api/swagger"
	"github.com/noah-isme/instructor-eval-api/internal/handler"
	"github.com/noah-isme/instructor-eval-api/internal/middleware"
	"github.com/noah-isme/instructor-eval-api/internal/models"
	"github.com/noah-isme/instructor-eval-api/internal/repository"
	"github.com/noah-isme/instructor-eval-api/internal/service"
	"github.com/noah-isme/instructor-eval-api/pkg/cache"
	"github.com/noah-isme/instructor-eval-api/pkg/config"
	"github.com/noah-isme/instructor-eval-api/pkg/database"
	"github.com/noah-isme/instructor-eval-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/instructor-eval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/instructor-eval-api/pkg/middleware/requestid"
)

// @title Instructor Evaluation API
// @version 1.0.0
// @description Backend for managing instructors, subjects and student evaluations
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
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Directory.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, directory cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Directory.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	accountRepo := repository.NewAccountRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	authSvc := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	instructorSvc := service.NewInstructorService(instructorRepo, enrollmentRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	questionSvc := service.NewQuestionService(questionRepo, validate, logr)
	rosterSvc := service.NewRosterService(evaluationRepo, enrollmentRepo, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, enrollmentRepo, instructorRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	studentHandler := handler.NewStudentHandler(rosterSvc, questionSvc, evaluationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/instructors", instructorHandler.List)
		admin.POST("/instructors", instructorHandler.Create)
		admin.GET("/instructors/:id", instructorHandler.Get)
		admin.PUT("/instructors/:id", instructorHandler.Update)
		admin.DELETE("/instructors/:id", instructorHandler.Delete)

		admin.GET("/subjects", subjectHandler.List)
		admin.POST("/subjects", subjectHandler.Create)
		admin.GET("/subjects/:id", subjectHandler.Get)
		admin.PUT("/subjects/:id", subjectHandler.Update)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)

		admin.GET("/questions", questionHandler.List)
		admin.POST("/questions", questionHandler.Create)
		admin.GET("/questions/:id", questionHandler.Get)
		admin.PUT("/questions/:id", questionHandler.Update)
		admin.DELETE("/questions/:id", questionHandler.Delete)
	}

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/subjects-for-evaluation", studentHandler.SubjectsForEvaluation)
		student.GET("/questions", studentHandler.ActiveQuestions)
		student.POST("/evaluations", studentHandler.SubmitEvaluation)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
