package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// ReportStore caches finished survey reports by their parameters
type ReportStore struct {
	cache Cache
	ttl   time.Duration
}

// NewReportStore wraps a cache for report storage
func NewReportStore(c Cache, ttl time.Duration) *ReportStore {
	return &ReportStore{cache: c, ttl: ttl}
}

// NewLayeredReportStore builds a memory+disk store from configuration
func NewLayeredReportStore(cfg model.CacheConfig) *ReportStore {
	return NewReportStore(NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), cfg.DiskTTL)
}

// Get returns the cached report for p, if any
func (s *ReportStore) Get(p model.SurveyParams) (*model.Report, bool) {
	key := CacheKey(p)
	data, found := s.cache.Get(key)
	if !found {
		return nil, false
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		_ = s.cache.Delete(key)
		return nil, false
	}
	return &report, true
}

// Put stores a report under its own parameters
func (s *ReportStore) Put(report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.cache.Set(CacheKey(report.Params), data, s.ttl); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

// Clear drops every cached report
func (s *ReportStore) Clear() error {
	return s.cache.Clear()
}
