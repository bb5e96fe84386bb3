// Package metrics exposes computation progress as prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ScottSallinen/lollipop-computer/computer"
)

var _ computer.Observer = (*Collector)(nil)

// Collector implements computer.Observer.
type Collector struct {
	supersteps     prometheus.Counter
	messages       prometheus.Counter
	iteration      prometheus.Gauge
	superstepTime  prometheus.Histogram
	stageTime      *prometheus.HistogramVec
	emitted        *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	submissionTime prometheus.Histogram
}

// Registers the collector's metrics with reg, or the default registerer if reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		supersteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "computer_supersteps_total",
			Help: "Total number of completed supersteps",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "computer_messages_sent_total",
			Help: "Total number of messages sent between vertices, before combining",
		}),
		iteration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "computer_iteration",
			Help: "Index of the most recently completed superstep",
		}),
		superstepTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "computer_superstep_duration_seconds",
			Help:    "Superstep wall time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "computer_mapreduce_stage_duration_seconds",
			Help:    "Map-reduce stage wall time in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"job", "stage"}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "computer_mapreduce_emitted_total",
			Help: "Key/value pairs emitted by map-reduce stages",
		}, []string{"job", "stage"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "computer_submissions_total",
			Help: "Finished submissions by outcome",
		}, []string{"outcome"}),
		submissionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "computer_submission_duration_seconds",
			Help:    "Submission wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	reg.MustRegister(c.supersteps, c.messages, c.iteration, c.superstepTime, c.stageTime, c.emitted, c.submissions, c.submissionTime)
	return c
}

func (c *Collector) SuperstepCompleted(iteration int, elapsed time.Duration, messages uint64) {
	c.supersteps.Inc()
	c.messages.Add(float64(messages))
	c.iteration.Set(float64(iteration))
	c.superstepTime.Observe(elapsed.Seconds())
}

func (c *Collector) StageCompleted(job string, stage computer.Stage, elapsed time.Duration, emitted int) {
	c.stageTime.WithLabelValues(job, stage.String()).Observe(elapsed.Seconds())
	c.emitted.WithLabelValues(job, stage.String()).Add(float64(emitted))
}

func (c *Collector) SubmissionCompleted(elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.submissions.WithLabelValues(outcome).Inc()
	c.submissionTime.Observe(elapsed.Seconds())
}

// An HTTP server exposing gatherer on /metrics. The caller starts and stops it.
func NewServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
