package repository

import (
	"sort"
	"sync"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
)

// MemStore is the in-process implementation of the entity store. One instance
// is shared by the whole subsystem for the process lifetime. All access goes
// through a single RWMutex; reads return copies so callers never observe
// in-flight mutations.
type MemStore struct {
	mu sync.RWMutex

	indicators      map[int64]models.Indicator
	values          map[int64]models.Value
	etlJobs         map[int64]models.EtlJob
	analysisResults map[int64]models.AnalysisResult

	indicatorSeq int64
	valueSeq     int64
	etlJobSeq    int64
	analysisSeq  int64
}

var _ domrepo.Store = (*MemStore)(nil)

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		indicators:      make(map[int64]models.Indicator),
		values:          make(map[int64]models.Value),
		etlJobs:         make(map[int64]models.EtlJob),
		analysisResults: make(map[int64]models.AnalysisResult),
	}
}

// --- Indicators ---

func (s *MemStore) CreateIndicator(in models.Indicator) models.Indicator {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indicatorSeq++
	in.ID = s.indicatorSeq
	s.indicators[in.ID] = in
	return in
}

func (s *MemStore) GetIndicator(id int64) (models.Indicator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.indicators[id]
	return in, ok
}

func (s *MemStore) GetIndicatorBySymbol(symbol string) (models.Indicator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, in := range s.indicators {
		if in.Symbol == symbol {
			return in, true
		}
	}
	return models.Indicator{}, false
}

func (s *MemStore) ListIndicators() []models.Indicator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Indicator, 0, len(s.indicators))
	for _, in := range s.indicators {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) UpdateIndicator(id int64, upd models.IndicatorUpdate) (models.Indicator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.indicators[id]
	if !ok {
		return models.Indicator{}, false
	}
	if upd.Name != nil {
		in.Name = *upd.Name
	}
	if upd.Description != nil {
		in.Description = *upd.Description
	}
	if upd.Frequency != nil {
		in.Frequency = *upd.Frequency
	}
	if upd.Units != nil {
		in.Units = *upd.Units
	}
	if upd.LastUpdated != nil {
		in.LastUpdated = *upd.LastUpdated
	}
	s.indicators[id] = in
	return in, true
}

// --- Values ---

func (s *MemStore) CreateValue(v models.Value) models.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createValueLocked(v)
}

func (s *MemStore) CreateValues(vs []models.Value) []models.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Value, 0, len(vs))
	for _, v := range vs {
		out = append(out, s.createValueLocked(v))
	}
	return out
}

func (s *MemStore) createValueLocked(v models.Value) models.Value {
	s.valueSeq++
	v.ID = s.valueSeq
	s.values[v.ID] = v
	return v
}

func (s *MemStore) ListValues(f domrepo.ValueFilter) []models.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Value, 0)
	for _, v := range s.values {
		if v.IndicatorID != f.IndicatorID {
			continue
		}
		if f.StartDate != nil && v.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && v.Date.After(*f.EndDate) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// --- ETL jobs ---

func (s *MemStore) CreateEtlJob(j models.EtlJob) models.EtlJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.etlJobSeq++
	j.ID = s.etlJobSeq
	j.Metadata = cloneMetadata(j.Metadata)
	s.etlJobs[j.ID] = j
	return j
}

func (s *MemStore) GetEtlJob(id int64) (models.EtlJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.etlJobs[id]
	if !ok {
		return models.EtlJob{}, false
	}
	return cloneJob(j), true
}

// ListEtlJobs returns jobs ordered newest first by start time, jobs without a
// start time last. A limit <= 0 returns everything.
func (s *MemStore) ListEtlJobs(limit int) []models.EtlJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EtlJob, 0, len(s.etlJobs))
	for _, j := range s.etlJobs {
		out = append(out, cloneJob(j))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].StartTime, out[j].StartTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemStore) UpdateEtlJob(id int64, upd models.EtlJobUpdate) (models.EtlJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEtlJobLocked(id, upd)
}

// TransitionEtlJob applies upd unless the job is already terminal. The check
// and the write share one critical section, so racing terminal writers cannot
// both pass the guard.
func (s *MemStore) TransitionEtlJob(id int64, upd models.EtlJobUpdate) (models.EtlJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.etlJobs[id]
	if !ok || j.Status.Terminal() {
		return models.EtlJob{}, false
	}
	return s.updateEtlJobLocked(id, upd)
}

func (s *MemStore) updateEtlJobLocked(id int64, upd models.EtlJobUpdate) (models.EtlJob, bool) {
	j, ok := s.etlJobs[id]
	if !ok {
		return models.EtlJob{}, false
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.EndTime != nil {
		j.EndTime = upd.EndTime
	}
	if upd.RecordsProcessed != nil {
		j.RecordsProcessed = upd.RecordsProcessed
	}
	if upd.Error != nil {
		j.Error = upd.Error
	}
	if upd.Metadata != nil {
		j.Metadata = cloneMetadata(upd.Metadata)
	}
	s.etlJobs[id] = j
	return cloneJob(j), true
}

// --- Analysis results ---

func (s *MemStore) CreateAnalysisResult(r models.AnalysisResult) models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analysisSeq++
	r.ID = s.analysisSeq
	r = cloneResult(r)
	s.analysisResults[r.ID] = r
	return r
}

func (s *MemStore) GetAnalysisResult(id int64) (models.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.analysisResults[id]
	if !ok {
		return models.AnalysisResult{}, false
	}
	return cloneResult(r), true
}

func (s *MemStore) ListAnalysisResults(analysisType string) []models.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AnalysisResult, 0, len(s.analysisResults))
	for _, r := range s.analysisResults {
		if analysisType != "" && string(r.Type) != analysisType {
			continue
		}
		out = append(out, cloneResult(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Counts returns per-entity record counts for status reporting.
func (s *MemStore) Counts() (indicators, values, jobs, results int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indicators), len(s.values), len(s.etlJobs), len(s.analysisResults)
}

func cloneJob(j models.EtlJob) models.EtlJob {
	j.Metadata = cloneMetadata(j.Metadata)
	return j
}

// cloneResult detaches the mutable parts of an analysis result, mirroring
// cloneJob for job metadata. Results beyond a top-level document keep their
// nested values shared; callers treat them as read-only.
func cloneResult(r models.AnalysisResult) models.AnalysisResult {
	if r.Indicators != nil {
		r.Indicators = append([]string(nil), r.Indicators...)
	}
	r.Parameters = cloneMetadata(r.Parameters)
	if doc, ok := r.Results.(map[string]interface{}); ok {
		r.Results = cloneMetadata(doc)
	}
	return r
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
