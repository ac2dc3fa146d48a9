package models

// Requests for ETL and analysis HTTP endpoints. Defined in domain for consistency and reuse.

type RunEtlRequest struct {
	SeriesID  string `json:"series_id" validate:"required"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type ScheduleEtlRequest struct {
	Task          string `json:"task" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
	SeriesID      string `json:"series_id" validate:"required"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

type CorrelationRequest struct {
	Series    string `query:"series" json:"series" validate:"required"`
	StartDate string `query:"start_date" json:"start_date,omitempty"`
	EndDate   string `query:"end_date" json:"end_date,omitempty"`
}

type ForecastRequest struct {
	Series    string `query:"series" json:"series" validate:"required"`
	StartDate string `query:"start_date" json:"start_date,omitempty"`
	EndDate   string `query:"end_date" json:"end_date,omitempty"`
	Model     string `query:"model" json:"model" default:"arima" validate:"oneof=arima sarima exponential_smoothing"`
	Periods   int    `query:"periods" json:"periods" default:"10" validate:"gte=1,lte=120"`
}

type MovingAveragesRequest struct {
	Series    string `query:"series" json:"series" validate:"required"`
	StartDate string `query:"start_date" json:"start_date,omitempty"`
	EndDate   string `query:"end_date" json:"end_date,omitempty"`
}

type VolatilityRequest struct {
	Series    string `query:"series" json:"series" validate:"required"`
	StartDate string `query:"start_date" json:"start_date,omitempty"`
	EndDate   string `query:"end_date" json:"end_date,omitempty"`
	Window    int    `query:"window" json:"window" default:"30" validate:"gte=2,lte=365"`
}

type SearchRequest struct {
	Query string `query:"query" json:"query" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}
