package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	"MacroPipe/pkg/cache"
	xlogger "MacroPipe/pkg/logger"
)

// analysisCapability is the external process implementing the analysis verbs.
const analysisCapability = "analysis"

// AnalysisService runs analytics capabilities synchronously and persists
// their successful output as AnalysisResults.
type AnalysisService struct {
	store    domrepo.Store
	bridge   Invoker
	ingester *ResultIngester
	cache    cache.Service
	cacheTTL time.Duration
	logger   *xlogger.Logger
}

// NewAnalysisService creates the service. cache may be nil to disable caching.
func NewAnalysisService(store domrepo.Store, bridge Invoker, ingester *ResultIngester, c cache.Service, cacheTTL time.Duration, lgr *xlogger.Logger) *AnalysisService {
	return &AnalysisService{
		store:    store,
		bridge:   bridge,
		ingester: ingester,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   lgr,
	}
}

// Correlation computes the correlation matrix across the requested series.
// The result is always persisted; correlation output carries no self-reported
// error convention.
func (s *AnalysisService) Correlation(ctx context.Context, req models.CorrelationRequest) (interface{}, error) {
	seriesIDs := splitSeries(req.Series)
	argv := []string{"correlation", "--series", req.Series}
	argv = appendDateRange(argv, req.StartDate, req.EndDate)

	output, err := s.run(ctx, argv)
	if err != nil {
		return nil, err
	}

	s.ingester.IngestAnalysis(models.AnalysisCorrelation, seriesIDs, map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	}, output)
	return output, nil
}

// Forecast runs a time-series forecast over the first requested series.
func (s *AnalysisService) Forecast(ctx context.Context, req models.ForecastRequest) (interface{}, error) {
	seriesID := firstSeries(req.Series)
	argv := []string{
		"forecast",
		"--series", seriesID,
		"--model", req.Model,
		"--periods", strconv.Itoa(req.Periods),
	}
	argv = appendDateRange(argv, req.StartDate, req.EndDate)

	output, err := s.run(ctx, argv)
	if err != nil {
		return nil, err
	}

	s.ingester.IngestAnalysis(models.AnalysisForecast, []string{seriesID}, map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"model":      req.Model,
		"periods":    req.Periods,
	}, output)
	return output, nil
}

// MovingAverages computes rolling means over the first requested series.
func (s *AnalysisService) MovingAverages(ctx context.Context, req models.MovingAveragesRequest) (interface{}, error) {
	seriesID := firstSeries(req.Series)
	argv := []string{"moving_averages", "--series", seriesID}
	argv = appendDateRange(argv, req.StartDate, req.EndDate)

	output, err := s.run(ctx, argv)
	if err != nil {
		return nil, err
	}

	s.ingester.IngestAnalysis(models.AnalysisMovingAverages, []string{seriesID}, map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	}, output)
	return output, nil
}

// Volatility computes rolling volatility over the first requested series.
func (s *AnalysisService) Volatility(ctx context.Context, req models.VolatilityRequest) (interface{}, error) {
	seriesID := firstSeries(req.Series)
	argv := []string{
		"volatility",
		"--series", seriesID,
		"--window", strconv.Itoa(req.Window),
	}
	argv = appendDateRange(argv, req.StartDate, req.EndDate)

	output, err := s.run(ctx, argv)
	if err != nil {
		return nil, err
	}

	s.ingester.IngestAnalysis(models.AnalysisVolatility, []string{seriesID}, map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"window":     req.Window,
	}, output)
	return output, nil
}

// Results lists persisted analysis results, optionally filtered by type.
func (s *AnalysisService) Results(analysisType string) []models.AnalysisResult {
	return s.store.ListAnalysisResults(analysisType)
}

// Result returns one persisted result by id.
func (s *AnalysisService) Result(id int64) (models.AnalysisResult, bool) {
	return s.store.GetAnalysisResult(id)
}

// run invokes the analysis capability, fronted by the response cache.
func (s *AnalysisService) run(ctx context.Context, argv []string) (interface{}, error) {
	key := cache.GenerateKey("analysis", cache.HashKey(strings.Join(argv, "|")))

	if s.cache != nil {
		var cached interface{}
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	output, err := s.bridge.Invoke(ctx, analysisCapability, argv)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, output, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("analysis cache set failed", xlogger.Error(err))
		}
	}
	return output, nil
}

func splitSeries(series string) []string {
	parts := strings.Split(series, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstSeries(series string) string {
	ids := splitSeries(series)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func appendDateRange(argv []string, start, end string) []string {
	if start != "" {
		argv = append(argv, "--start_date", start)
	}
	if end != "" {
		argv = append(argv, "--end_date", end)
	}
	return argv
}
