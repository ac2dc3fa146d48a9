package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	xlogger "MacroPipe/pkg/logger"
	xutil "MacroPipe/pkg/util"
)

// seriesSource is the external provider every ingested series is attributed to.
const seriesSource = "FRED"

// ResultIngester converts successful bridge output into durable records.
type ResultIngester struct {
	store   domrepo.Store
	archive domrepo.ValueArchive
	metrics domrepo.Metrics
	logger  *xlogger.Logger
}

// NewResultIngester creates an ingester. archive and metrics may be nil.
func NewResultIngester(store domrepo.Store, archive domrepo.ValueArchive, metrics domrepo.Metrics, lgr *xlogger.Logger) *ResultIngester {
	return &ResultIngester{store: store, archive: archive, metrics: metrics, logger: lgr}
}

// IngestSeries processes series-fetch ETL output: it refreshes or creates the
// Indicator from the output's metadata block and bulk-appends the observation
// values. Returns the number of enumerable data records in the output (0 when
// the output carries none).
func (g *ResultIngester) IngestSeries(seriesID string, output interface{}) (int, error) {
	doc, _ := output.(map[string]interface{})

	data, _ := doc["data"].([]interface{})
	records := len(data)

	if meta, ok := doc["metadata"].(map[string]interface{}); ok && len(meta) > 0 {
		g.upsertIndicator(seriesID, meta)
	}

	indicator, ok := g.store.GetIndicatorBySymbol(seriesID)
	if ok && records > 0 {
		vs := g.buildValues(indicator.ID, data)
		if len(vs) > 0 {
			stored := g.store.CreateValues(vs)
			if g.archive != nil {
				if err := g.archive.ArchiveValues(seriesID, stored); err != nil && g.logger != nil {
					g.logger.Warn("value archive failed",
						xlogger.String("series", seriesID),
						xlogger.Error(err),
					)
				}
			}
		}
	}

	if g.metrics != nil {
		g.metrics.RecordRecordsProcessed(seriesID, records)
	}
	return records, nil
}

// upsertIndicator refreshes lastUpdated for a known symbol and creates the
// Indicator from metadata otherwise. Missing metadata fields fall back to the
// symbol for name, "unknown" for frequency, and empty units.
func (g *ResultIngester) upsertIndicator(seriesID string, meta map[string]interface{}) {
	now := time.Now()

	if existing, ok := g.store.GetIndicatorBySymbol(seriesID); ok {
		g.store.UpdateIndicator(existing.ID, models.IndicatorUpdate{LastUpdated: &now})
		return
	}

	g.store.CreateIndicator(models.Indicator{
		Symbol:      seriesID,
		Name:        stringField(meta, "name", seriesID),
		Description: stringField(meta, "description", ""),
		Frequency:   stringField(meta, "frequency", "unknown"),
		Units:       stringField(meta, "units", ""),
		Source:      seriesSource,
		LastUpdated: now,
	})
}

// buildValues converts raw data records into Value rows. Records without a
// parsable date or numeric value are skipped. Values are normalized through
// decimal so "3.14", 3.14, and 3.140 all store the same text.
func (g *ResultIngester) buildValues(indicatorID int64, data []interface{}) []models.Value {
	out := make([]models.Value, 0, len(data))
	for _, item := range data {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		date, ok := xutil.ParseTime(stringField(rec, "date", ""))
		if !ok {
			continue
		}
		dec, ok := parseDecimal(rec["value"])
		if !ok {
			continue
		}
		out = append(out, models.Value{
			IndicatorID: indicatorID,
			Date:        date,
			Value:       dec.String(),
		})
	}
	return out
}

// IngestAnalysis persists one analysis invocation's output as an
// AnalysisResult. Correlation output is always persisted; the other analysis
// types self-report failure through an "error" field and are only persisted
// when that field is absent. Returns the stored result and whether one was
// written.
func (g *ResultIngester) IngestAnalysis(analysisType models.AnalysisType, indicators []string, params map[string]interface{}, output interface{}) (models.AnalysisResult, bool) {
	if analysisType != models.AnalysisCorrelation && hasErrorField(output) {
		return models.AnalysisResult{}, false
	}

	r := g.store.CreateAnalysisResult(models.AnalysisResult{
		Type:       analysisType,
		Indicators: indicators,
		Parameters: params,
		Results:    output,
		CreatedAt:  time.Now(),
	})
	if g.metrics != nil {
		g.metrics.RecordAnalysisRun(string(analysisType))
	}
	return r, true
}

func hasErrorField(output interface{}) bool {
	doc, ok := output.(map[string]interface{})
	if !ok {
		return false
	}
	v, ok := doc["error"]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func parseDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
