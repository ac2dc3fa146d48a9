package api

import (
	"strconv"

	models "MacroPipe/internal/domain/models"
	"MacroPipe/internal/usecase"
	xhttp "MacroPipe/pkg/http"
	xlogger "MacroPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the synchronous analytics endpoints.
type AnalysisHandler struct {
	logger *xlogger.Logger
	svc    *usecase.AnalysisService
}

func NewAnalysisHandler(logger *xlogger.Logger, svc *usecase.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, svc: svc}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/analysis")
	g.GET("/correlation", h.Correlation)
	g.GET("/forecast", h.Forecast)
	g.GET("/moving-averages", h.MovingAverages)
	g.GET("/volatility", h.Volatility)
	g.GET("/results", h.Results)
	g.GET("/results/:id", h.Result)
}

func (h *AnalysisHandler) Correlation(c echo.Context) error {
	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	output, err := h.svc.Correlation(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("correlation failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, output)
}

func (h *AnalysisHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	output, err := h.svc.Forecast(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("forecast failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, output)
}

func (h *AnalysisHandler) MovingAverages(c echo.Context) error {
	req := &models.MovingAveragesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	output, err := h.svc.MovingAverages(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("moving averages failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, output)
}

func (h *AnalysisHandler) Volatility(c echo.Context) error {
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	output, err := h.svc.Volatility(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("volatility failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, output)
}

func (h *AnalysisHandler) Results(c echo.Context) error {
	results := h.svc.Results(c.QueryParam("type"))
	if limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return xhttp.SuccessResponse(c, results)
}

func (h *AnalysisHandler) Result(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.BadRequestResponse(c, "result id must be an integer")
	}
	res, ok := h.svc.Result(id)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("analysis result with ID %d not found", id))
	}
	return xhttp.SuccessResponse(c, res)
}
