package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/repository"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
	"github.com/docflowhq/docflow/services/pipeline"
)

type RunsHandler struct {
	log     logger.Logger
	repos   *repository.Repositories
	runner  *pipeline.Runner
	storage interfaces.StorageService
}

func NewRunsHandler(log logger.Logger, repos *repository.Repositories, runner *pipeline.Runner, storageService interfaces.StorageService) *RunsHandler {
	return &RunsHandler{
		log:     log,
		repos:   repos,
		runner:  runner,
		storage: storageService,
	}
}

// GetRunReport returns the consolidated report for a run date
func (h *RunsHandler) GetRunReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.GetRunReport")
		defer span.Finish()
		tracing.TagComponentRest(span)

		runDate := c.Param("date")
		if _, err := time.Parse(utils.RunDateLayout, runDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
			return
		}
		tracing.TagRunDate(span, runDate)

		report, err := h.repos.RunReportRepository.GetByRunDate(ctx, runDate)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run report"})
			return
		}
		if report == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report for " + runDate})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// DownloadRunReport streams the xlsx report file for a run date
func (h *RunsHandler) DownloadRunReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.DownloadRunReport")
		defer span.Finish()
		tracing.TagComponentRest(span)

		runDate := c.Param("date")
		if _, err := time.Parse(utils.RunDateLayout, runDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
			return
		}
		tracing.TagRunDate(span, runDate)

		report, err := h.repos.RunReportRepository.GetByRunDate(ctx, runDate)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run report"})
			return
		}
		if report == nil || report.ReportStorageKey == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report file for " + runDate})
			return
		}

		data, err := h.storage.Download(ctx, report.ReportStorageKey)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download report file"})
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+runDate+`.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

// ListRunDocuments returns the storage keys of the documents filed during a
// run, split by partition
func (h *RunsHandler) ListRunDocuments() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.ListRunDocuments")
		defer span.Finish()
		tracing.TagComponentRest(span)

		runDate := c.Param("date")
		if _, err := time.Parse(utils.RunDateLayout, runDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
			return
		}
		tracing.TagRunDate(span, runDate)

		accepted, err := h.storage.List(ctx, "accepted/"+runDate+"/")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
			return
		}

		rejected, err := h.storage.List(ctx, "rejected/"+runDate+"/")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"runDate":  runDate,
			"accepted": accepted,
			"rejected": rejected,
		})
	}
}

// TriggerRun starts a pipeline run for today, or for the date given in the
// request body. The run executes in the background
func (h *RunsHandler) TriggerRun() gin.HandlerFunc {
	type triggerRequest struct {
		RunDate *string `json:"runDate"`
	}

	return func(c *gin.Context) {
		span, _ := opentracing.StartSpanFromContext(c.Request.Context(), "RunsHandler.TriggerRun")
		defer span.Finish()
		tracing.TagComponentRest(span)

		var req triggerRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		runDate := utils.GetOrDefault(req.RunDate, utils.FormatRunDate(utils.Now()))
		if _, err := time.Parse(utils.RunDateLayout, runDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "runDate must be formatted YYYY-MM-DD"})
			return
		}
		tracing.TagRunDate(span, runDate)

		go func() {
			defer tracing.RecoverAndLogToJaeger(h.log)
			if _, err := h.runner.Run(context.Background(), runDate); err != nil {
				h.log.Errorf("Triggered pipeline run for %s failed: %v", runDate, err)
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"runDate": runDate, "status": "started"})
	}
}
