package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/bcqa/bcqa-backend/internal/handlers"
	"github.com/bcqa/bcqa-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string
	UploadDir    string
	ExportDir    string

	RequestLog      *middleware.RequestLogMiddleware
	TemplateHandler *handlers.TemplateHandler
	RunHandler      *handlers.RunHandler
	PhotoHandler    *handlers.PhotoHandler
	ExportHandler   *handlers.ExportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog.Handler())
	}
	router.Use(otelgin.Middleware("bcqa-api"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	// Stored photos and generated reports are served as plain files.
	router.Static("/uploads", cfg.UploadDir)
	router.Static("/exports", cfg.ExportDir)

	router.GET("/healthcheck", handlers.HealthCheck)

	// Templates
	router.GET("/templates", cfg.TemplateHandler.List)
	router.GET("/templates/:templateId", cfg.TemplateHandler.Get)

	// Runs
	router.POST("/runs", cfg.RunHandler.Create)
	router.GET("/runs", cfg.RunHandler.List)
	router.GET("/runs/:id", cfg.RunHandler.GetDetails)
	router.PUT("/runs/:id", cfg.RunHandler.Update)
	router.DELETE("/runs/:id", cfg.RunHandler.Delete)
	router.POST("/runs/:id/submit", cfg.RunHandler.Submit)

	// Answers
	router.POST("/runs/:id/answers", cfg.RunHandler.UpsertAnswer)

	// Photos
	router.POST("/runs/:id/questions/:questionId/photos", cfg.PhotoHandler.Upload)
	router.PUT("/runs/:id/photos/:photoId", cfg.PhotoHandler.UpdateCaption)
	router.DELETE("/runs/:id/photos/:photoId", cfg.PhotoHandler.Delete)
	router.POST("/runs/:id/photos/thumbnails/regenerate", cfg.PhotoHandler.RegenerateThumbnails)

	// Export
	router.POST("/runs/:id/export", cfg.ExportHandler.Export)

	return router
}
