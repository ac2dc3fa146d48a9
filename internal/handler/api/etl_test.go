package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MacroPipe/internal/repository"
	"MacroPipe/internal/usecase"
	applogger "MacroPipe/pkg/logger"
	"MacroPipe/pkg/queue"

	"github.com/labstack/echo/v4"
)

type stubInvoker struct {
	output interface{}
	err    error
}

func (s *stubInvoker) Invoke(context.Context, string, []string) (interface{}, error) {
	return s.output, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, inv usecase.Invoker) (*echo.Echo, *repository.MemStore, *queue.Runner) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := repository.NewMemStore()
	repository.Seed(store)
	runner := queue.NewRunner(nil)
	ingester := usecase.NewResultIngester(store, nil, nil, nil)
	orch := usecase.NewOrchestrator(store, inv, ingester, runner, nil, nil, l)

	e := echo.New()
	NewEtlHandler(l, orch).RegisterRoutes(e)
	NewStatusHandler(orch, store).RegisterRoutes(e)
	return e, store, runner
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestRunEtlAccepted(t *testing.T) {
	e, store, runner := newTestServer(t, &stubInvoker{output: map[string]interface{}{"status": "success"}})

	rec := doRequest(e, http.MethodPost, "/api/etl/run", `{"series_id":"GDP"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rec.Body.String())
	}

	var data struct {
		JobID int64 `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	runner.Wait()

	job, ok := store.GetEtlJob(data.JobID)
	if !ok {
		t.Fatalf("job %d not created", data.JobID)
	}
	if job.Task != "GDP Dataset Update" {
		t.Fatalf("unexpected task %q", job.Task)
	}
}

func TestRunEtlMissingSeries(t *testing.T) {
	e, _, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodPost, "/api/etl/run", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == "" {
		t.Fatalf("expected error envelope: %s", rec.Body.String())
	}
}

func TestScheduleEtlBadTime(t *testing.T) {
	e, store, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodPost, "/api/etl/schedule",
		`{"task":"GDP Dataset Update","scheduled_time":"whenever","series_id":"GDP"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.ListEtlJobs(0)) != 0 {
		t.Fatalf("job created despite bad time")
	}
}

func TestScheduleEtlAccepted(t *testing.T) {
	e, store, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodPost, "/api/etl/schedule",
		`{"task":"GDP Dataset Update","scheduled_time":"2030-01-01T00:00:00Z","series_id":"GDP"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	jobs := store.ListEtlJobs(0)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != "scheduled" {
		t.Fatalf("unexpected status %s", jobs[0].Status)
	}
}

func TestGetJobNotFound(t *testing.T) {
	e, _, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/etl/jobs/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatalf("expected error envelope")
	}
}

func TestGetJobBadID(t *testing.T) {
	e, _, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/api/etl/jobs/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPipelineStatusEndpoint(t *testing.T) {
	e, _, runner := newTestServer(t, &stubInvoker{output: map[string]interface{}{"status": "success"}})

	doRequest(e, http.MethodPost, "/api/etl/run", `{"series_id":"GDP"}`)
	runner.Wait()

	rec := doRequest(e, http.MethodGet, "/api/etl/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)

	var status struct {
		Status    string `json:"status"`
		JobCounts struct {
			Completed int `json:"completed"`
		} `json:"jobCounts"`
	}
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != "idle" {
		t.Fatalf("expected idle, got %s", status.Status)
	}
	if status.JobCounts.Completed != 1 {
		t.Fatalf("expected 1 completed, got %d", status.JobCounts.Completed)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t, &stubInvoker{})

	rec := doRequest(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
