package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters exported on /metrics.
type Metrics struct {
	evaluations      *prometheus.CounterVec
	queries          *prometheus.CounterVec
	upstreamAttempts *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New registers the collectors with reg, reusing any already registered.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "mmr"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Profile evaluations by outcome.",
		}, []string{"outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_queries_total",
			Help:      "Chat queries by answer source and result.",
		}, []string{"source", "result"}),
		upstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Outbound HTTP attempts by status class.",
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_lookups_total",
			Help:      "Answer cache lookups by result.",
		}, []string{"result"}),
	}
	for _, c := range []**prometheus.CounterVec{&m.evaluations, &m.queries, &m.upstreamAttempts, &m.cacheLookups} {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					*c = existing
					continue
				}
			}
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// Evaluation counts one evaluation.
func (m *Metrics) Evaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

// Query counts one chat query.
func (m *Metrics) Query(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.queries.WithLabelValues(source, result).Inc()
}

// CacheLookup counts an answer cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// UpstreamAttempt matches webclient.Policy.OnAttempt.
func (m *Metrics) UpstreamAttempt(_ int, status int, err error) {
	if m == nil {
		return
	}
	m.upstreamAttempts.WithLabelValues(statusClass(status, err)).Inc()
}

func statusClass(status int, err error) string {
	if err != nil || status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
