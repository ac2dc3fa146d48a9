package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	jobsStarted    *prometheus.CounterVec
	jobsFinished   *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	bridgeRuns     *prometheus.CounterVec
	bridgeDuration *prometheus.HistogramVec
	analysisRuns   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		jobsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropipe_jobs_started_total",
				Help: "Total number of ETL jobs started",
			},
			[]string{"task"},
		),
		jobsFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropipe_jobs_finished_total",
				Help: "Total number of ETL jobs finished, by terminal status",
			},
			[]string{"status"},
		),
		recordsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropipe_records_processed_total",
				Help: "Total number of observations ingested",
			},
			[]string{"symbol"},
		),
		bridgeRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropipe_bridge_invocations_total",
				Help: "Total number of analytics process invocations",
			},
			[]string{"capability", "error"},
		),
		bridgeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropipe_bridge_duration_seconds",
				Help:    "Duration of analytics process invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"capability"},
		),
		analysisRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropipe_analysis_runs_total",
				Help: "Total number of analysis executions, by type",
			},
			[]string{"type"},
		),
	}
}

// RecordJobStarted records one job entering in_progress.
func (r *Recorder) RecordJobStarted(task string) {
	r.jobsStarted.WithLabelValues(task).Inc()
}

// RecordJobFinished records one job reaching a terminal status.
func (r *Recorder) RecordJobFinished(status string) {
	r.jobsFinished.WithLabelValues(status).Inc()
}

// RecordRecordsProcessed records observations ingested for a symbol.
func (r *Recorder) RecordRecordsProcessed(symbol string, n int) {
	r.recordsTotal.WithLabelValues(symbol).Add(float64(n))
}

// RecordBridgeInvocation records one external process run.
func (r *Recorder) RecordBridgeInvocation(capability string, seconds float64, err bool) {
	r.bridgeRuns.WithLabelValues(capability, strconv.FormatBool(err)).Inc()
	r.bridgeDuration.WithLabelValues(capability).Observe(seconds)
}

// RecordAnalysisRun records one analysis execution.
func (r *Recorder) RecordAnalysisRun(analysisType string) {
	r.analysisRuns.WithLabelValues(analysisType).Inc()
}
