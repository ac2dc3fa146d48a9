package api

import (
	"net/http"
	"time"

	"MacroPipe/internal/usecase"
	xhttp "MacroPipe/pkg/http"

	"github.com/labstack/echo/v4"
)

// EntityCounter reports how many entities of each kind the store holds.
type EntityCounter interface {
	Counts() (indicators, values, jobs, results int)
}

// StatusHandler exposes the system status block and the health probe.
type StatusHandler struct {
	orch    *usecase.Orchestrator
	counter EntityCounter
}

func NewStatusHandler(orch *usecase.Orchestrator, counter EntityCounter) *StatusHandler {
	return &StatusHandler{orch: orch, counter: counter}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/status", h.Status)
	e.GET("/health", h.Health)
}

func (h *StatusHandler) Status(c echo.Context) error {
	indicators, values, jobs, results := h.counter.Counts()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"api":      "operational",
		"pipeline": h.orch.Status(),
		"storage": map[string]int{
			"indicators":      indicators,
			"values":          values,
			"jobs":            jobs,
			"analysisResults": results,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
