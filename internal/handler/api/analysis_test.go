package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"MacroPipe/internal/repository"
	"MacroPipe/internal/usecase"
	applogger "MacroPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newAnalysisServer(t *testing.T, inv usecase.Invoker) (*echo.Echo, *repository.MemStore) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := repository.NewMemStore()
	repository.Seed(store)
	ingester := usecase.NewResultIngester(store, nil, nil, nil)
	svc := usecase.NewAnalysisService(store, inv, ingester, nil, 0, l)

	e := echo.New()
	NewAnalysisHandler(l, svc).RegisterRoutes(e)
	return e, store
}

func TestCorrelationEndpoint(t *testing.T) {
	output := map[string]interface{}{
		"correlation_matrix": map[string]interface{}{"GDP": map[string]interface{}{"UNRATE": -0.8}},
	}
	e, store := newAnalysisServer(t, &stubInvoker{output: output})

	rec := doRequest(e, http.MethodGet, "/api/analysis/correlation?series=GDP,UNRATE", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope")
	}

	results := store.ListAnalysisResults("correlation")
	if len(results) != 1 {
		t.Fatalf("correlation result not persisted")
	}
	if len(results[0].Indicators) != 2 || results[0].Indicators[0] != "GDP" {
		t.Fatalf("unexpected indicators: %v", results[0].Indicators)
	}
}

func TestCorrelationMissingSeries(t *testing.T) {
	e, _ := newAnalysisServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/analysis/correlation", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestForecastDefaults(t *testing.T) {
	e, store := newAnalysisServer(t, &stubInvoker{output: map[string]interface{}{"forecast": []interface{}{1.0}}})

	rec := doRequest(e, http.MethodGet, "/api/analysis/forecast?series=GDP", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	results := store.ListAnalysisResults("forecast")
	if len(results) != 1 {
		t.Fatalf("forecast result not persisted")
	}
	params := results[0].Parameters
	if params["model"] != "arima" {
		t.Fatalf("model default not applied: %v", params["model"])
	}
	if params["periods"] != 10 {
		t.Fatalf("periods default not applied: %v", params["periods"])
	}
}

func TestForecastRejectsUnknownModel(t *testing.T) {
	e, _ := newAnalysisServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/analysis/forecast?series=GDP&model=crystal_ball", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVolatilityErrorOutputNotPersisted(t *testing.T) {
	e, store := newAnalysisServer(t, &stubInvoker{output: map[string]interface{}{"error": "too few observations"}})

	rec := doRequest(e, http.MethodGet, "/api/analysis/volatility?series=GDP", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.ListAnalysisResults("")) != 0 {
		t.Fatalf("errored output was persisted")
	}
}

func TestAnalysisResultsListingAndLookup(t *testing.T) {
	e, store := newAnalysisServer(t, &stubInvoker{output: map[string]interface{}{"ma": []interface{}{1.0}}})

	doRequest(e, http.MethodGet, "/api/analysis/moving-averages?series=GDP", "")

	rec := doRequest(e, http.MethodGet, "/api/analysis/results?type=moving_averages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var list []json.RawMessage
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 result, got %d", len(list))
	}

	id := store.ListAnalysisResults("")[0].ID
	rec = doRequest(e, http.MethodGet, "/api/analysis/results/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for result %d, got %d", id, rec.Code)
	}

	rec = doRequest(e, http.MethodGet, "/api/analysis/results/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
