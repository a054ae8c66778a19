// Package metrics collects and exposes Prometheus metrics for the auth API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for signup and login counters.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder is the metrics surface used by handlers and middleware.
type Recorder interface {
	RecordSignup(result string)
	RecordLogin(result string)
	RecordTokenRejection(reason string)
	ObservePasswordHash(op string, d time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	signups         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
	hashSeconds     *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_signups_total",
			Help: "Signup attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_token_rejections_total",
			Help: "Requests rejected by the auth middleware, by reason.",
		}, []string{"reason"}),
		hashSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "authgate_password_hash_seconds",
			Help: "Time spent hashing or verifying passwords.",
			// Hashing is deliberately slow; DefBuckets top out too early.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}

	reg.MustRegister(c.signups, c.logins, c.tokenRejections, c.hashSeconds)
	return c
}

// RecordSignup counts a signup attempt.
func (c *Collector) RecordSignup(result string) {
	c.signups.WithLabelValues(result).Inc()
}

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordTokenRejection counts a 401 from the auth middleware.
func (c *Collector) RecordTokenRejection(reason string) {
	c.tokenRejections.WithLabelValues(reason).Inc()
}

// ObservePasswordHash records how long a hash or verify took.
func (c *Collector) ObservePasswordHash(op string, d time.Duration) {
	c.hashSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) RecordSignup(string)                       {}
func (Discard) RecordLogin(string)                        {}
func (Discard) RecordTokenRejection(string)               {}
func (Discard) ObservePasswordHash(string, time.Duration) {}
