package metrics

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/mrsurvey/internal/model"
)

func TestCollector_ObserveOutcome(t *testing.T) {
	c := NewCollector()

	c.ObserveOutcome(model.Outcome{N: 9, Composite: true, Passed: 3, Trials: 10}, time.Millisecond)
	c.ObserveOutcome(model.Outcome{N: 11, Composite: false, Passed: 10, Trials: 10}, time.Millisecond)
	c.ObserveOutcome(model.Outcome{N: 15, Composite: true, Passed: 0, Trials: 10}, time.Millisecond)

	if got := testutil.ToFloat64(c.trials); got != 30 {
		t.Errorf("expected 30 trials, got %v", got)
	}
	if got := testutil.ToFloat64(c.falsePositives); got != 3 {
		t.Errorf("expected 3 false positives, got %v", got)
	}
	if got := testutil.ToFloat64(c.falseNegatives); got != 0 {
		t.Errorf("expected 0 false negatives, got %v", got)
	}
	if got := testutil.ToFloat64(c.candidates.WithLabelValues("composite")); got != 2 {
		t.Errorf("expected 2 composites, got %v", got)
	}
	if got := testutil.ToFloat64(c.candidates.WithLabelValues("prime")); got != 1 {
		t.Errorf("expected 1 prime, got %v", got)
	}
}

func TestCollector_ObserveSurvey(t *testing.T) {
	c := NewCollector()
	c.ObserveSurvey("ok", time.Second)
	c.ObserveSurvey("cached", 0)

	if got := testutil.ToFloat64(c.surveys.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok survey, got %v", got)
	}
	if got := testutil.CollectAndCount(c.surveySeconds); got != 1 {
		t.Errorf("expected 1 histogram, got %d", got)
	}
}

func TestServer_ServesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveSurvey("ok", time.Second)

	var accessLog bytes.Buffer
	srv, err := Listen("127.0.0.1:0", c, &accessLog)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "mrsurvey_surveys_total") {
		t.Errorf("expected survey counter in output, got:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}

	if !strings.Contains(accessLog.String(), "GET /metrics") {
		t.Errorf("expected access log entry, got %q", accessLog.String())
	}
}
