package models

import "time"

// JobStatus is the lifecycle state of an EtlJob.
// Transitions: scheduled -> in_progress -> {completed | failed}.
// completed and failed are terminal.
type JobStatus string

const (
	JobScheduled  JobStatus = "scheduled"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// AnalysisType names one analytics capability verb.
type AnalysisType string

const (
	AnalysisCorrelation    AnalysisType = "correlation"
	AnalysisForecast       AnalysisType = "forecast"
	AnalysisMovingAverages AnalysisType = "moving_averages"
	AnalysisVolatility     AnalysisType = "volatility"
)

// Indicator is a named time-series definition. Created on first successful
// ingestion of a new series or seeded at startup; mutated only by ingestion.
type Indicator struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Frequency   string    `json:"frequency"` // daily, weekly, monthly, quarterly, annual, unknown
	Units       string    `json:"units,omitempty"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IndicatorUpdate is a partial update; nil fields are left untouched.
type IndicatorUpdate struct {
	Name        *string
	Description *string
	Frequency   *string
	Units       *string
	LastUpdated *time.Time
}

// Value is one dated observation of an Indicator. Immutable once created.
// The value is kept as decimal text to avoid precision loss across formats.
type Value struct {
	ID          int64     `json:"id"`
	IndicatorID int64     `json:"indicatorId"`
	Date        time.Time `json:"date"`
	Value       string    `json:"value"`
}

// EtlJob is one tracked unit of orchestrated work.
type EtlJob struct {
	ID               int64                  `json:"id"`
	Task             string                 `json:"task"`
	Status           JobStatus              `json:"status"`
	StartTime        *time.Time             `json:"startTime"`
	EndTime          *time.Time             `json:"endTime"`
	RecordsProcessed *int                   `json:"recordsProcessed"`
	Error            *string                `json:"error"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// EtlJobUpdate is a partial update applied by the orchestrator during state
// transitions; nil fields are left untouched.
type EtlJobUpdate struct {
	Status           *JobStatus
	EndTime          *time.Time
	RecordsProcessed *int
	Error            *string
	Metadata         map[string]interface{}
}

// AnalysisResult is a persisted snapshot of one analytics invocation.
// Written only for invocations that succeeded; immutable.
type AnalysisResult struct {
	ID         int64                  `json:"id"`
	Type       AnalysisType           `json:"type"`
	Indicators []string               `json:"indicators"`
	Parameters map[string]interface{} `json:"parameters"`
	Results    interface{}            `json:"results"`
	CreatedAt  time.Time              `json:"createdAt"`
}
