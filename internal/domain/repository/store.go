package repository

import (
	"time"

	"MacroPipe/internal/domain/models"
)

// ValueFilter narrows a value query to one indicator and an optional
// inclusive date range.
type ValueFilter struct {
	IndicatorID int64
	StartDate   *time.Time
	EndDate     *time.Time
}

// Store is the authoritative in-process collection of the four entity kinds.
// Identifiers are per-kind, monotonically increasing from 1, and never reused.
// All reads return snapshots: later mutations do not affect returned slices.
// Implementations must be safe for concurrent callers.
type Store interface {
	// Indicators
	CreateIndicator(in models.Indicator) models.Indicator
	GetIndicator(id int64) (models.Indicator, bool)
	GetIndicatorBySymbol(symbol string) (models.Indicator, bool)
	ListIndicators() []models.Indicator
	UpdateIndicator(id int64, upd models.IndicatorUpdate) (models.Indicator, bool)

	// Values (append-only; sorted ascending by date on read)
	CreateValue(v models.Value) models.Value
	CreateValues(vs []models.Value) []models.Value
	ListValues(f ValueFilter) []models.Value

	// ETL jobs (listing is descending by startTime, nil start times last)
	CreateEtlJob(j models.EtlJob) models.EtlJob
	GetEtlJob(id int64) (models.EtlJob, bool)
	ListEtlJobs(limit int) []models.EtlJob
	UpdateEtlJob(id int64, upd models.EtlJobUpdate) (models.EtlJob, bool)
	// TransitionEtlJob is UpdateEtlJob with an atomic non-terminal guard: the
	// update is refused if the job is missing or already terminal.
	TransitionEtlJob(id int64, upd models.EtlJobUpdate) (models.EtlJob, bool)

	// Analysis results (listing is descending by createdAt)
	CreateAnalysisResult(r models.AnalysisResult) models.AnalysisResult
	GetAnalysisResult(id int64) (models.AnalysisResult, bool)
	ListAnalysisResults(analysisType string) []models.AnalysisResult
}

// ValueArchive mirrors ingested observations into durable external storage.
// Optional; the in-process Store remains authoritative.
type ValueArchive interface {
	ArchiveValues(symbol string, vs []models.Value) error
	Close() error
}

// Metrics records operational measurements for the subsystem.
type Metrics interface {
	RecordJobStarted(task string)
	RecordJobFinished(status string)
	RecordRecordsProcessed(symbol string, n int)
	RecordBridgeInvocation(capability string, seconds float64, err bool)
	RecordAnalysisRun(analysisType string)
}
