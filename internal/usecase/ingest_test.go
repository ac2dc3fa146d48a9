package usecase

import (
	"testing"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	"MacroPipe/internal/repository"
)

func TestIngestSeriesCreatesIndicatorAndValues(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	records, err := g.IngestSeries("GDP", map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{"date": "2024-01-01", "value": 1.5},
			map[string]interface{}{"date": "2024-02-01", "value": "2.50"},
			map[string]interface{}{"date": "garbage", "value": 3.0},
		},
		"metadata": map[string]interface{}{
			"name":      "Gross Domestic Product",
			"frequency": "quarterly",
			"units":     "Billions of Dollars",
		},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	// Record count reflects the raw data length, valid or not.
	if records != 3 {
		t.Fatalf("expected 3 records, got %d", records)
	}

	in, ok := store.GetIndicatorBySymbol("GDP")
	if !ok {
		t.Fatalf("indicator not created")
	}
	if in.Source != "FRED" {
		t.Fatalf("unexpected source %q", in.Source)
	}
	if in.Frequency != "quarterly" {
		t.Fatalf("unexpected frequency %q", in.Frequency)
	}

	vs := store.ListValues(domrepo.ValueFilter{IndicatorID: in.ID})
	if len(vs) != 2 {
		t.Fatalf("expected 2 stored values, got %d", len(vs))
	}
	// Decimal normalization: "2.50" stores as 2.5.
	if vs[1].Value != "2.5" {
		t.Fatalf("value not normalized: %q", vs[1].Value)
	}
}

func TestIngestSeriesMetadataFallbacks(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	if _, err := g.IngestSeries("MYSTERY", map[string]interface{}{
		"metadata": map[string]interface{}{"notes": "nothing useful"},
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	in, ok := store.GetIndicatorBySymbol("MYSTERY")
	if !ok {
		t.Fatalf("indicator not created")
	}
	if in.Name != "MYSTERY" {
		t.Fatalf("name fallback wrong: %q", in.Name)
	}
	if in.Frequency != "unknown" {
		t.Fatalf("frequency fallback wrong: %q", in.Frequency)
	}
	if in.Units != "" {
		t.Fatalf("units fallback wrong: %q", in.Units)
	}
}

func TestIngestSeriesRefreshesExisting(t *testing.T) {
	store := repository.NewMemStore()
	repository.Seed(store)
	before, _ := store.GetIndicatorBySymbol("GDP")
	g := NewResultIngester(store, nil, nil, nil)

	if _, err := g.IngestSeries("GDP", map[string]interface{}{
		"metadata": map[string]interface{}{"name": "Renamed"},
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	after, _ := store.GetIndicatorBySymbol("GDP")
	if after.Name != before.Name {
		t.Fatalf("existing indicator renamed: %q", after.Name)
	}
	if !after.LastUpdated.After(before.LastUpdated) {
		t.Fatalf("lastUpdated not refreshed")
	}
}

func TestIngestSeriesEmptyOutput(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	records, err := g.IngestSeries("GDP", map[string]interface{}{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if records != 0 {
		t.Fatalf("expected 0 records, got %d", records)
	}
	if _, ok := store.GetIndicatorBySymbol("GDP"); ok {
		t.Fatalf("indicator created from empty output")
	}
}

func TestIngestAnalysisSkipsSelfReportedError(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	_, stored := g.IngestAnalysis(models.AnalysisForecast, []string{"GDP"}, nil, map[string]interface{}{
		"error": "insufficient observations",
	})
	if stored {
		t.Fatalf("errored forecast output was persisted")
	}
	if len(store.ListAnalysisResults("")) != 0 {
		t.Fatalf("result record exists")
	}
}

func TestIngestAnalysisCorrelationAlwaysPersisted(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	r, stored := g.IngestAnalysis(models.AnalysisCorrelation, []string{"GDP", "UNRATE"}, nil, map[string]interface{}{
		"error": "partial matrix",
	})
	if !stored {
		t.Fatalf("correlation output not persisted")
	}
	if r.ID != 1 {
		t.Fatalf("unexpected result id %d", r.ID)
	}
	if r.Type != models.AnalysisCorrelation {
		t.Fatalf("unexpected type %s", r.Type)
	}
}

func TestIngestAnalysisSuccessPersisted(t *testing.T) {
	store := repository.NewMemStore()
	g := NewResultIngester(store, nil, nil, nil)

	r, stored := g.IngestAnalysis(models.AnalysisVolatility, []string{"SP500"},
		map[string]interface{}{"window": 30},
		map[string]interface{}{"volatility": []interface{}{1.0, 2.0}},
	)
	if !stored {
		t.Fatalf("volatility output not persisted")
	}
	if r.Parameters["window"] != 30 {
		t.Fatalf("parameters not stored: %v", r.Parameters)
	}
	got, ok := store.GetAnalysisResult(r.ID)
	if !ok || got.Type != models.AnalysisVolatility {
		t.Fatalf("result not readable: %v", got)
	}
}
