package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"MacroPipe/internal/repository"
	"MacroPipe/internal/usecase"
	applogger "MacroPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

var errInvoke = errors.New("bridge unavailable")

func newMarketServer(t *testing.T, inv usecase.Invoker) *echo.Echo {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := repository.NewMemStore()
	repository.Seed(store)
	svc := usecase.NewMarketService(store, inv, l)

	e := echo.New()
	NewMarketHandler(l, svc).RegisterRoutes(e)
	return e
}

func TestListIndicators(t *testing.T) {
	e := newMarketServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/indicators", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)

	var list []struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 seeded indicators, got %d", len(list))
	}
	if list[0].Symbol != "GDP" {
		t.Fatalf("unexpected first symbol %q", list[0].Symbol)
	}
}

func TestSeriesUnknownSymbol(t *testing.T) {
	e := newMarketServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/indicators/NOPE", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSeriesFetch(t *testing.T) {
	output := []interface{}{
		map[string]interface{}{"date": "2024-01-01", "value": 1.5},
		map[string]interface{}{"date": "2024-02-01", "value": "2.5"},
		map[string]interface{}{"date": "", "value": 3.0}, // skipped
	}
	e := newMarketServer(t, &stubInvoker{output: output})

	rec := doRequest(e, http.MethodGet, "/api/indicators/GDP", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)

	var series struct {
		Indicator string `json:"indicator"`
		Frequency string `json:"frequency"`
		Values    []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"values"`
	}
	if err := json.Unmarshal(env.Data, &series); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if series.Indicator != "GDP" || series.Frequency != "quarterly" {
		t.Fatalf("unexpected series header: %+v", series)
	}
	if len(series.Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(series.Values))
	}
	if series.Values[1].Value != 2.5 {
		t.Fatalf("string value not coerced: %v", series.Values[1].Value)
	}
}

func TestSeriesBridgeFailure(t *testing.T) {
	e := newMarketServer(t, &stubInvoker{err: errInvoke})

	rec := doRequest(e, http.MethodGet, "/api/indicators/GDP", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == "" {
		t.Fatalf("expected error envelope: %s", rec.Body.String())
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	e := newMarketServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/market/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOverviewTolerant(t *testing.T) {
	// Every fetch fails; the overview must still answer with an empty map.
	e := newMarketServer(t, &stubInvoker{err: errInvoke})

	rec := doRequest(e, http.MethodGet, "/api/market/overview", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)

	var overview map[string]interface{}
	if err := json.Unmarshal(env.Data, &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(overview) != 0 {
		t.Fatalf("expected empty overview, got %v", overview)
	}
}
