package api

import (
	"errors"
	"strconv"

	models "MacroPipe/internal/domain/models"
	"MacroPipe/internal/usecase"
	xhttp "MacroPipe/pkg/http"
	xlogger "MacroPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EtlHandler exposes job submission, scheduling, and inspection.
type EtlHandler struct {
	logger *xlogger.Logger
	orch   *usecase.Orchestrator
}

func NewEtlHandler(logger *xlogger.Logger, orch *usecase.Orchestrator) *EtlHandler {
	return &EtlHandler{logger: logger, orch: orch}
}

func (h *EtlHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/etl")
	g.GET("/jobs", h.ListJobs)
	g.GET("/jobs/:id", h.GetJob)
	g.POST("/run", h.Run)
	g.POST("/schedule", h.Schedule)
	g.GET("/status", h.Status)
}

func (h *EtlHandler) ListJobs(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return xhttp.BadRequestResponse(c, "limit must be a non-negative integer")
		}
		limit = n
	}
	return xhttp.SuccessResponse(c, h.orch.Jobs(limit))
}

func (h *EtlHandler) GetJob(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.BadRequestResponse(c, "job id must be an integer")
	}
	job, ok := h.orch.Job(id)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("ETL job with ID %d not found", id))
	}
	return xhttp.SuccessResponse(c, job)
}

func (h *EtlHandler) Run(c echo.Context) error {
	req := &models.RunEtlRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	jobID, err := h.orch.Submit(c.Request().Context(), *req)
	if err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			return xhttp.BadRequestResponse(c, verr.Error())
		}
		h.logger.Error("etl run failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}

	return xhttp.SuccessMessageResponse(c, "ETL job started", map[string]interface{}{
		"job_id":    jobID,
		"series_id": req.SeriesID,
	})
}

func (h *EtlHandler) Schedule(c echo.Context) error {
	req := &models.ScheduleEtlRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	jobID, err := h.orch.Schedule(c.Request().Context(), *req)
	if err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			return xhttp.BadRequestResponse(c, verr.Error())
		}
		h.logger.Error("etl schedule failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}

	return xhttp.SuccessMessageResponse(c, "ETL job scheduled", map[string]interface{}{
		"job_id":         jobID,
		"scheduled_time": req.ScheduledTime,
	})
}

func (h *EtlHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Status())
}
