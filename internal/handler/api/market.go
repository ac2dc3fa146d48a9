package api

import (
	"errors"
	"strconv"
	"time"

	models "MacroPipe/internal/domain/models"
	"MacroPipe/internal/usecase"
	xhttp "MacroPipe/pkg/http"
	xlogger "MacroPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler exposes indicator listings, live series lookups, search, and
// the dashboard overview.
type MarketHandler struct {
	logger *xlogger.Logger
	svc    *usecase.MarketService
}

func NewMarketHandler(logger *xlogger.Logger, svc *usecase.MarketService) *MarketHandler {
	return &MarketHandler{logger: logger, svc: svc}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/indicators", h.Indicators)
	g.GET("/indicators/:symbol", h.Series)
	g.GET("/indicators/:symbol/values", h.Values)
	g.GET("/market/search", h.Search)
	g.GET("/market/overview", h.Overview)
}

func (h *MarketHandler) Indicators(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Indicators())
}

func (h *MarketHandler) Series(c echo.Context) error {
	res, err := h.svc.Series(
		c.Request().Context(),
		c.Param("symbol"),
		c.QueryParam("start_date"),
		c.QueryParam("end_date"),
		c.QueryParam("frequency"),
	)
	if err != nil {
		var nf *usecase.NotFoundError
		if errors.As(err, &nf) {
			return xhttp.NotFoundResponse(c, nf.Error())
		}
		h.logger.Error("series fetch failed",
			xlogger.String("symbol", c.Param("symbol")),
			xlogger.Error(err),
		)
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, res)
}

// Values reads observations already persisted in the entity store, scoped by
// an optional date range.
func (h *MarketHandler) Values(c echo.Context) error {
	indicator, ok := h.svc.IndicatorBySymbol(c.Param("symbol"))
	if !ok {
		return xhttp.NotFoundResponse(c, "indicator with symbol "+c.Param("symbol")+" not found")
	}

	start, err := parseDateParam(c.QueryParam("start_date"))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	end, err := parseDateParam(c.QueryParam("end_date"))
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	values, err := h.svc.Values(indicator.ID, start, end)
	if err != nil {
		var nf *usecase.NotFoundError
		if errors.As(err, &nf) {
			return xhttp.NotFoundResponse(c, nf.Error())
		}
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, values)
}

func (h *MarketHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	output, err := h.svc.Search(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		h.logger.Error("series search failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, output)
}

func (h *MarketHandler) Overview(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Overview(c.Request().Context()))
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, ok := xhttp.ParseTime(raw)
	if !ok {
		return nil, errors.New("invalid date format: " + strconv.Quote(raw))
	}
	return &t, nil
}
