// Package metrics exposes Prometheus counters for form traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeSent     = "sent"
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the module counters.
type Metrics struct {
	submissions *prometheus.CounterVec
	mails       *prometheus.CounterVec
	advisories  *prometheus.CounterVec
	cacheFiles  prometheus.Counter
	gatherer    prometheus.Gatherer
}

// New registers the counters on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the counters on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formicula",
			Name:      "submissions_total",
			Help:      "Visitor form submissions by form number and outcome.",
		}, []string{"form", "outcome"}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formicula",
			Name:      "mails_total",
			Help:      "Outgoing mails by kind (admin, confirmation) and outcome.",
		}, []string{"kind", "outcome"}),
		advisories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formicula",
			Name:      "advisories_total",
			Help:      "Advisory messages shown to users by type.",
		}, []string{"type"}),
		cacheFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "formicula",
			Name:      "captcha_cache_files_removed_total",
			Help:      "Captcha images removed by cache clearing.",
		}),
		gatherer: g,
	}
	reg.MustRegister(m.submissions, m.mails, m.advisories, m.cacheFiles)
	return m
}

// Submission counts a submission of form with outcome.
func (m *Metrics) Submission(form int, outcome string) {
	m.submissions.WithLabelValues(strconv.Itoa(form), outcome).Inc()
}

// Mail counts an outgoing mail.
func (m *Metrics) Mail(kind string, err error) {
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	m.mails.WithLabelValues(kind, outcome).Inc()
}

// Advisory counts an advisory of type typ.
func (m *Metrics) Advisory(typ string) {
	m.advisories.WithLabelValues(typ).Inc()
}

// CacheFilesRemoved adds n removed captcha images.
func (m *Metrics) CacheFilesRemoved(n int) {
	m.cacheFiles.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
