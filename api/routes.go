package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/docflowhq/docflow/api/handlers"
	"github.com/docflowhq/docflow/api/middleware"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/repository"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, log logger.Logger, s *services.Services, repos *repository.Repositories, apiKey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())

	runsHandler := handlers.NewRunsHandler(log, repos, s.PipelineRunner, s.StorageService)

	// Health check endpoint (no auth)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-DOCFLOW-API-KEY",
		ValidAPIKey: apiKey,
	})

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(tracing.TracingEnhancer(ctx, "/v1"))
	{
		runs := api.Group("/runs")
		{
			runs.POST("", runsHandler.TriggerRun())
			runs.GET("/:date", runsHandler.GetRunReport())
			runs.GET("/:date/report", runsHandler.DownloadRunReport())
			runs.GET("/:date/documents", runsHandler.ListRunDocuments())
		}
	}
}
