package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bcqa/bcqa-backend/internal/db"
	"github.com/bcqa/bcqa-backend/internal/handlers"
	"github.com/bcqa/bcqa-backend/internal/middleware"
	"github.com/bcqa/bcqa-backend/internal/observability"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/report"
	"github.com/bcqa/bcqa-backend/internal/repos"
	"github.com/bcqa/bcqa-backend/internal/server"
	"github.com/bcqa/bcqa-backend/internal/services"
	"github.com/bcqa/bcqa-backend/internal/template"
	"github.com/bcqa/bcqa-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "bcqa-api",
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() { _ = shutdownOtel(ctx) }()
	}

	// Env
	log.Info("Loading environment variables from main...")
	templatesDir := utils.GetEnv("TEMPLATES_DIR", "templates", log)
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads", log)
	exportDir := utils.GetEnv("EXPORT_DIR", "exports", log)
	apiURL := utils.GetEnv("API_URL", "http://localhost:8000", log)

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Database auto migration failed", "error", err)
	}
	theDB := dbService.DB()

	// Template registry
	log.Info("Setting up template registry from main...")
	registry := template.NewRegistry(templatesDir, log)
	if _, err := registry.LoadAll(ctx); err != nil {
		log.Warn("Initial template load failed", "error", err)
	}

	// Repos
	log.Info("Setting up repos from main...")
	runRepo := repos.NewRunRepo(theDB, log)
	answerRepo := repos.NewAnswerRepo(theDB, log)
	photoRepo := repos.NewPhotoRepo(theDB, log)

	// Services
	log.Info("Setting up services from main...")
	mediaStore, err := services.NewLocalMediaStore(uploadDir, log)
	if err != nil {
		log.Fatal("Could not init MediaStore", "error", err)
	}
	thumbnailService := services.NewThumbnailService(log)
	answerService := services.NewAnswerService(theDB, log, runRepo, answerRepo)
	runService := services.NewRunService(theDB, log, registry, runRepo, answerRepo, photoRepo, mediaStore)
	photoService := services.NewPhotoService(theDB, log, runRepo, photoRepo, answerService, mediaStore, thumbnailService)
	renderer := report.NewRenderer(log)
	exportService, err := services.NewExportService(theDB, log, registry, runRepo, answerRepo, renderer, exportDir, apiURL)
	if err != nil {
		log.Fatal("Could not init ExportService", "error", err)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	templateHandler := handlers.NewTemplateHandler(log, registry)
	runHandler := handlers.NewRunHandler(log, runService, answerService)
	photoHandler := handlers.NewPhotoHandler(log, photoService)
	exportHandler := handlers.NewExportHandler(log, exportService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:    allowedOrigins(log),
		UploadDir:       uploadDir,
		ExportDir:       exportDir,
		RequestLog:      middleware.NewRequestLogMiddleware(log),
		TemplateHandler: templateHandler,
		RunHandler:      runHandler,
		PhotoHandler:    photoHandler,
		ExportHandler:   exportHandler,
	})

	port := utils.GetEnv("PORT", "8000", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}

func allowedOrigins(log *logger.Logger) []string {
	raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	if strings.TrimSpace(raw) == "" {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8000",
			"http://127.0.0.1:8000",
		}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
