package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/mrsurvey/internal/model"
)

const namespace = "mrsurvey"

// Collector records survey progress on its own registry
type Collector struct {
	registry         *prometheus.Registry
	candidates       *prometheus.CounterVec
	trials           prometheus.Counter
	falsePositives   prometheus.Counter
	falseNegatives   prometheus.Counter
	candidateSeconds prometheus.Histogram
	surveys          *prometheus.CounterVec
	surveySeconds    prometheus.Histogram
}

// NewCollector creates and registers the survey metrics
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidates evaluated, by oracle verdict.",
		}, []string{"verdict"}),
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "witness_trials_total",
			Help:      "Single-witness Miller-Rabin rounds run.",
		}),
		falsePositives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "false_positives_total",
			Help:      "Rounds that called a composite probably prime.",
		}),
		falseNegatives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "false_negatives_total",
			Help:      "Rounds that rejected a prime.",
		}),
		candidateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_duration_seconds",
			Help:      "Time spent evaluating one candidate.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		surveys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surveys_total",
			Help:      "Survey runs, by result.",
		}, []string{"result"}),
		surveySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "survey_duration_seconds",
			Help:      "Wall time of completed surveys.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}

	c.registry.MustRegister(
		c.candidates,
		c.trials,
		c.falsePositives,
		c.falseNegatives,
		c.candidateSeconds,
		c.surveys,
		c.surveySeconds,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOutcome records one evaluated candidate
func (c *Collector) ObserveOutcome(o model.Outcome, elapsed time.Duration) {
	c.trials.Add(float64(o.Trials))
	c.candidateSeconds.Observe(elapsed.Seconds())
	if o.Composite {
		c.candidates.WithLabelValues("composite").Inc()
		c.falsePositives.Add(float64(o.Passed))
		return
	}
	c.candidates.WithLabelValues("prime").Inc()
	c.falseNegatives.Add(float64(o.Trials - o.Passed))
}

// ObserveSurvey records a finished survey. result is "ok", "cached" or "error".
func (c *Collector) ObserveSurvey(result string, elapsed time.Duration) {
	c.surveys.WithLabelValues(result).Inc()
	if result == "ok" {
		c.surveySeconds.Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
