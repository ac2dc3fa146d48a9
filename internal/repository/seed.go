package repository

import (
	"time"

	"MacroPipe/internal/domain/models"
)

// Seed loads the baseline indicator set so the dashboard has data to point at
// before the first ingestion run. Symbols already present are left alone.
func Seed(s *MemStore) {
	now := time.Now()

	indicators := []models.Indicator{
		{
			Symbol:      "GDP",
			Name:        "Gross Domestic Product",
			Description: "Real Gross Domestic Product",
			Frequency:   "quarterly",
			Units:       "Billions of Dollars",
			Source:      "FRED",
			LastUpdated: now,
		},
		{
			Symbol:      "UNRATE",
			Name:        "Unemployment Rate",
			Description: "Civilian Unemployment Rate",
			Frequency:   "monthly",
			Units:       "Percent",
			Source:      "FRED",
			LastUpdated: now,
		},
		{
			Symbol:      "CPIAUCSL",
			Name:        "Consumer Price Index",
			Description: "Consumer Price Index for All Urban Consumers: All Items",
			Frequency:   "monthly",
			Units:       "Index 1982-1984=100",
			Source:      "FRED",
			LastUpdated: now,
		},
		{
			Symbol:      "DGS10",
			Name:        "10-Year Treasury Rate",
			Description: "10-Year Treasury Constant Maturity Rate",
			Frequency:   "daily",
			Units:       "Percent",
			Source:      "FRED",
			LastUpdated: now,
		},
		{
			Symbol:      "SP500",
			Name:        "S&P 500",
			Description: "S&P 500 Stock Market Index",
			Frequency:   "daily",
			Units:       "Index",
			Source:      "FRED",
			LastUpdated: now,
		},
	}

	for _, in := range indicators {
		if _, ok := s.GetIndicatorBySymbol(in.Symbol); !ok {
			s.CreateIndicator(in)
		}
	}
}
