package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/alumni-connect-api/api/swagger"
	"github.com/noah-isme/alumni-connect-api/internal/handler"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/pkg/config"
	"github.com/noah-isme/alumni-connect-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/alumni-connect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/alumni-connect-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(app.metrics))

	metricsHandler := handler.NewMetricsHandler(app.metrics.Handler(), app.health)
	r.GET("/health", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(app.auth)
	sessionHandler := handler.NewSessionHandler(app.sessions)
	attendanceHandler := handler.NewAttendanceHandler(app.attendance)
	notificationHandler := handler.NewNotificationHandler(app.notifications)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth))
	secured.GET("/auth/me", authHandler.Me)

	admin := middleware.RequireRoles(models.RoleAdmin)
	student := middleware.RequireRoles(models.RoleStudent)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty, models.RoleAlumni, models.RoleStudent)

	sessions := secured.Group("/sessions")
	sessions.POST("", anyRole, sessionHandler.Create)
	sessions.GET("", anyRole, sessionHandler.List)
	sessions.GET("/requests", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty, models.RoleAlumni), sessionHandler.ListRequests)
	sessions.PATCH("/requests/:id/review", admin, sessionHandler.ReviewRequest)
	sessions.PATCH("/requests/:id/approve", admin, sessionHandler.ApproveRequest)
	sessions.PATCH("/requests/:id/reject", admin, sessionHandler.RejectRequest)
	sessions.GET("/:id", anyRole, sessionHandler.Get)
	sessions.PUT("/:id", admin, sessionHandler.Update)
	sessions.PATCH("/:id/status", admin, sessionHandler.SetStatus)

	sessions.POST("/:id/attendance", student, attendanceHandler.SetIntent)
	sessions.GET("/:id/attendance", student, attendanceHandler.GetMine)
	sessions.POST("/:id/feedback", student, attendanceHandler.SubmitFeedback)
	sessions.GET("/:id/attendance-stats", admin, attendanceHandler.Stats)
	sessions.GET("/:id/attendance-report", admin,
		middleware.Audit(app.audit, logr, models.AuditActionAttendanceExport, "session"),
		attendanceHandler.Report)

	notifications := secured.Group("/notifications")
	notifications.GET("", anyRole, notificationHandler.List)
	notifications.PATCH("/read-all", anyRole, notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", anyRole, notificationHandler.MarkRead)

	return r
}
