package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/mrsurvey/internal/metrics"
	"github.com/ppiankov/mrsurvey/internal/model"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.Survey = model.SurveyParams{Start: 9, End: 200, Trials: 50, TopK: 5, Workers: 2, Seed: 7}
	return cfg
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPipeline_CachesSeededRuns(t *testing.T) {
	cfg := testConfig(t)
	collector := metrics.NewCollector()
	p := NewPipeline(cfg, testLogger(), WithCollector(collector))

	first, err := p.Run(context.Background(), cfg.Survey)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Cached {
		t.Error("first run must not be cached")
	}

	// worker count does not change a seeded result
	params := cfg.Survey
	params.Workers = 1
	second, err := p.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !second.Cached {
		t.Error("expected second run to be served from cache")
	}
	if second.RunID != first.RunID {
		t.Errorf("expected cached run id %s, got %s", first.RunID, second.RunID)
	}

	count, err := testutil.GatherAndCount(collector.Registry(), "mrsurvey_surveys_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("expected ok and cached series, got %d", count)
	}
}

func TestPipeline_UnseededRunsNotCached(t *testing.T) {
	cfg := testConfig(t)
	cfg.Survey.Seed = 0
	p := NewPipeline(cfg, testLogger())

	first, err := p.Run(context.Background(), cfg.Survey)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := p.Run(context.Background(), cfg.Survey)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Cached || first.RunID == second.RunID {
		t.Error("unseeded runs must not be served from cache")
	}
}

func TestPipeline_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	p := NewPipeline(cfg, testLogger())

	for i := 0; i < 2; i++ {
		report, err := p.Run(context.Background(), cfg.Survey)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if report.Cached {
			t.Errorf("run %d served from cache with caching disabled", i)
		}
	}
	if err := p.ClearCache(); err != nil {
		t.Errorf("ClearCache without a store: %v", err)
	}
}

func TestPipeline_InvalidParams(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, testLogger())

	params := cfg.Survey
	params.Trials = 0
	_, err := p.Run(context.Background(), params)
	if !errors.Is(err, model.ErrInvalidTrialCount) {
		t.Errorf("expected ErrInvalidTrialCount, got %v", err)
	}
}

func TestPipeline_RunCandidates(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, testLogger())

	report, err := p.RunCandidates(context.Background(), cfg.Survey, []int64{341, 561, 2047})
	if err != nil {
		t.Fatalf("RunCandidates failed: %v", err)
	}
	if report.Summary.Composites != 3 {
		t.Errorf("expected 3 composites, got %d", report.Summary.Composites)
	}
}

func TestPipeline_RenderReportToFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Format = "markdown"
	cfg.Output.Path = filepath.Join(t.TempDir(), "report.md")
	p := NewPipeline(cfg, testLogger())

	report, err := p.Run(context.Background(), cfg.Survey)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := p.RenderReport(report, io.Discard); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	data, err := os.ReadFile(cfg.Output.Path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Miller-Rabin False-Positive Survey") {
		t.Errorf("unexpected report file:\n%s", data)
	}
}

func TestPipeline_RenderReportToWriter(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, testLogger())

	report, err := p.Run(context.Background(), cfg.Survey)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var out strings.Builder
	if err := p.RenderReport(report, &out); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(report.Entries) {
		t.Errorf("expected %d lines, got %d", len(report.Entries), len(lines))
	}
}
