package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-enroll-api/api/swagger"
	"github.com/noah-isme/class-enroll-api/internal/handler"
	"github.com/noah-isme/class-enroll-api/internal/middleware"
	"github.com/noah-isme/class-enroll-api/internal/models"
	"github.com/noah-isme/class-enroll-api/internal/repository"
	"github.com/noah-isme/class-enroll-api/internal/service"
	"github.com/noah-isme/class-enroll-api/pkg/cache"
	"github.com/noah-isme/class-enroll-api/pkg/config"
	"github.com/noah-isme/class-enroll-api/pkg/database"
	"github.com/noah-isme/class-enroll-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-enroll-api/pkg/middleware/requestid"
)

// @title Class Enrollment API
// @version 1.0.0
// @description Class scheduling and enrollment service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	userRepo := repository.NewUserRepository(db, metricsService)
	studentRepo := repository.NewStudentRepository(db, metricsService)
	subjectRepo := repository.NewSubjectRepository(db, metricsService)
	gradeRepo := repository.NewGradeRepository(db, metricsService)
	scheduleRepo := repository.NewScheduleRepository(db, metricsService)
	enrollmentRepo := repository.NewEnrollmentRepository(db, metricsService)
	dashboardRepo := repository.NewDashboardRepository(db, metricsService)
	announcementRepo := repository.NewAnnouncementRepository(db, metricsService)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentService := service.NewStudentService(studentRepo, logr)
	eligibilityService := service.NewEligibilityService(studentRepo, subjectRepo, gradeRepo, enrollmentRepo, cfg.Enrollment.Semester, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, scheduleRepo, subjectRepo, gradeRepo, cacheService, nil, logr)
	approvalService := service.NewApprovalService(enrollmentRepo, scheduleRepo, cacheService, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, cacheService, logr)
	dashboardService := service.NewDashboardService(dashboardRepo, logr)
	announcementService := service.NewAnnouncementService(announcementRepo, enrollmentRepo, nil, logr)
	exportService := service.NewExportService(scheduleRepo, enrollmentRepo, scheduleRepo, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService, eligibilityService, enrollmentService, scheduleService, exportService, metricsService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	adminHandler := handler.NewAdminHandler(dashboardService, approvalService, scheduleService, exportService, metricsService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	student := api.Group("/student", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent))
	student.GET("/me", studentHandler.Me)
	student.GET("/available-subjects", studentHandler.AvailableSubjects)
	student.GET("/subject/:code/schedules", studentHandler.SubjectSchedules)
	student.POST("/enroll", studentHandler.Enroll)
	student.GET("/my-schedules", studentHandler.MySchedules)
	student.GET("/my-schedules/export", studentHandler.ExportMySchedules)

	schedule := api.Group("/schedule", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent))
	schedule.GET("", scheduleHandler.Timetable)
	schedule.GET("/:id", scheduleHandler.Detail)
	schedule.POST("/check-conflict", scheduleHandler.CheckConflict)

	admin := api.Group("/admin", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/subjects", adminHandler.Subjects)
	admin.GET("/section/:id/schedules", adminHandler.SectionSchedules)
	admin.GET("/schedule/:id/enrolled", adminHandler.Enrolled)
	admin.GET("/schedule/:id/enrolled/export", adminHandler.ExportRoster)
	admin.GET("/schedule/:id/requests", adminHandler.Requests)
	admin.POST("/request/:id/approve", adminHandler.Approve)
	admin.POST("/request/:id/decline", adminHandler.Decline)

	announcements := api.Group("/announcements", middleware.JWT(authService))
	announcements.POST("", middleware.RequireRoles(models.RoleAdmin), announcementHandler.Create)
	announcements.GET("/mine", middleware.RequireRoles(models.RoleAdmin), announcementHandler.Mine)
	announcements.GET("/for-student", middleware.RequireRoles(models.RoleStudent), announcementHandler.ForStudent)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
