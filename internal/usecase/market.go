package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	xlogger "MacroPipe/pkg/logger"
)

// fredCapability is the external process that talks to the series provider.
const fredCapability = "fred_api"

// overviewSymbols are the indicators shown on the dashboard overview.
var overviewSymbols = []string{"GDP", "UNRATE", "CPIAUCSL", "DGS10", "SP500"}

// NotFoundError marks a lookup for an entity that does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// SeriesPoint is one observation in a series response.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SeriesResponse is the payload of GET /indicators/:symbol.
type SeriesResponse struct {
	Indicator string                 `json:"indicator"`
	Frequency string                 `json:"frequency"`
	Unit      string                 `json:"unit"`
	Values    []SeriesPoint          `json:"values"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// OverviewEntry is one indicator's latest reading on the dashboard overview.
type OverviewEntry struct {
	Value         float64 `json:"value"`
	Date          string  `json:"date"`
	PercentChange float64 `json:"percentChange"`
}

// MarketService serves indicator listings and live series lookups.
type MarketService struct {
	store  domrepo.Store
	bridge Invoker
	logger *xlogger.Logger
}

// NewMarketService creates the service.
func NewMarketService(store domrepo.Store, bridge Invoker, lgr *xlogger.Logger) *MarketService {
	return &MarketService{store: store, bridge: bridge, logger: lgr}
}

// Indicators lists all known indicators.
func (m *MarketService) Indicators() []models.Indicator {
	return m.store.ListIndicators()
}

// IndicatorBySymbol resolves one indicator by its series symbol.
func (m *MarketService) IndicatorBySymbol(symbol string) (models.Indicator, bool) {
	return m.store.GetIndicatorBySymbol(symbol)
}

// Series fetches one indicator's observations through the provider bridge.
// Unknown symbols are a NotFoundError before anything is spawned.
func (m *MarketService) Series(ctx context.Context, symbol, startDate, endDate, frequency string) (SeriesResponse, error) {
	indicator, ok := m.store.GetIndicatorBySymbol(symbol)
	if !ok {
		return SeriesResponse{}, &NotFoundError{Msg: fmt.Sprintf("indicator with symbol %s not found", symbol)}
	}

	argv := []string{"get_series", "--series_id", symbol}
	argv = appendDateRange(argv, startDate, endDate)
	if frequency != "" {
		argv = append(argv, "--frequency", frequency)
	}

	output, err := m.bridge.Invoke(ctx, fredCapability, argv)
	if err != nil {
		return SeriesResponse{}, err
	}

	return SeriesResponse{
		Indicator: symbol,
		Frequency: indicator.Frequency,
		Unit:      indicator.Units,
		Values:    toSeriesPoints(output),
		Metadata: map[string]interface{}{
			"source":       indicator.Source,
			"last_updated": indicator.LastUpdated,
			"notes":        indicator.Description,
		},
	}, nil
}

// Search queries the provider for series matching the text.
func (m *MarketService) Search(ctx context.Context, query string, limit int) (interface{}, error) {
	argv := []string{"search", "--search_text", query, "--limit", strconv.Itoa(limit)}
	return m.bridge.Invoke(ctx, fredCapability, argv)
}

// Overview returns the latest value and percent change for each dashboard
// indicator. A symbol whose fetch fails is left out rather than failing the
// whole overview.
func (m *MarketService) Overview(ctx context.Context) map[string]OverviewEntry {
	result := make(map[string]OverviewEntry, len(overviewSymbols))

	for _, symbol := range overviewSymbols {
		output, err := m.bridge.Invoke(ctx, fredCapability, []string{"get_series", "--series_id", symbol})
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("overview fetch failed",
					xlogger.String("symbol", symbol),
					xlogger.Error(err),
				)
			}
			continue
		}

		points := toSeriesPoints(output)
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date > points[j].Date })

		entry := OverviewEntry{Value: points[0].Value, Date: points[0].Date}
		if len(points) > 1 && points[1].Value != 0 {
			change := (points[0].Value - points[1].Value) / points[1].Value * 100
			entry.PercentChange = math.Round(change*100) / 100
		}
		result[symbol] = entry
	}
	return result
}

// Values reads stored observations for an indicator from the entity store.
func (m *MarketService) Values(indicatorID int64, startDate, endDate *time.Time) ([]models.Value, error) {
	if _, ok := m.store.GetIndicator(indicatorID); !ok {
		return nil, &NotFoundError{Msg: fmt.Sprintf("indicator %d not found", indicatorID)}
	}
	return m.store.ListValues(domrepo.ValueFilter{
		IndicatorID: indicatorID,
		StartDate:   startDate,
		EndDate:     endDate,
	}), nil
}

// toSeriesPoints converts raw bridge output (a JSON list of {date, value}
// records) into series points, skipping malformed entries.
func toSeriesPoints(output interface{}) []SeriesPoint {
	items, ok := output.([]interface{})
	if !ok {
		return nil
	}
	out := make([]SeriesPoint, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		date, _ := rec["date"].(string)
		if date == "" {
			continue
		}
		var value float64
		switch v := rec["value"].(type) {
		case float64:
			value = v
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			value = parsed
		default:
			continue
		}
		out = append(out, SeriesPoint{Date: date, Value: value})
	}
	return out
}
