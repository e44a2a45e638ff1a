// Package metrics exposes bot counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"channel-signature-bot/internal/domain"
)

type Metrics struct {
	registry *prometheus.Registry
	updates  *prometheus.CounterVec
	signs    *prometheus.CounterVec
}

// New registers the collectors on a private registry. channels reports the
// current registry size for the gauge.
func New(channels func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chanbot_updates_total",
			Help: "Telegram updates processed, by kind.",
		}, []string{"kind"}),
		signs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chanbot_sign_total",
			Help: "Channel post sign attempts, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.updates, m.signs)
	if channels != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "chanbot_registered_channels",
			Help: "Channels currently in the registry.",
		}, func() float64 { return float64(channels()) }))
	}
	return m
}

func (m *Metrics) Update(kind string) { m.updates.WithLabelValues(kind).Inc() }

func (m *Metrics) Sign(outcome domain.SignOutcome) { m.signs.WithLabelValues(string(outcome)).Inc() }

func (m *Metrics) UpdateCounter(kind string) prometheus.Counter { return m.updates.WithLabelValues(kind) }

func (m *Metrics) SignCounter(outcome domain.SignOutcome) prometheus.Counter {
	return m.signs.WithLabelValues(string(outcome))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
