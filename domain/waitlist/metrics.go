package waitlist

import (
	"github.com/prometheus/client_golang/prometheus"
)

// sourceLabels bounds the label set; anything else is reported as "other".
var sourceLabels = map[string]bool{
	"general":        true,
	"header":         true,
	"hero-primary":   true,
	"final-cta":      true,
	"pricing-banner": true,
}

type Metrics struct {
	submissions *prometheus.CounterVec
	signups     prometheus.Gauge
	countCache  *prometheus.CounterVec
}

// NewMetrics registers the waitlist collectors on reg. A nil reg yields
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_submissions_total",
				Help: "Waitlist submissions by call-to-action source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		signups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_signups",
			Help: "Last observed number of rows in waitlist_submissions.",
		}),
		countCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_count_cache_lookups_total",
				Help: "Count cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.submissions, m.signups, m.countCache)
	}
	return m
}

func (m *Metrics) observeSubmission(source, outcome string) {
	if m == nil {
		return
	}
	if !sourceLabels[source] {
		source = "other"
	}
	m.submissions.WithLabelValues(source, outcome).Inc()
}

// SetSignups records the latest known count.
func (m *Metrics) SetSignups(count int64) {
	if m == nil {
		return
	}
	m.signups.Set(float64(count))
}

func (m *Metrics) observeCountCache(result string) {
	if m == nil {
		return
	}
	m.countCache.WithLabelValues(result).Inc()
}
