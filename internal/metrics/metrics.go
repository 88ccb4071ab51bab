// Package metrics exposes Prometheus counters for runs and outreach.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	reg *prometheus.Registry

	runsLaunched   prometheus.Counter
	runsFinished   *prometheus.CounterVec
	pollErrors     prometheus.Counter
	leadsIngested  *prometheus.CounterVec
	outreachSends  *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		runsLaunched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "runs_launched_total",
			Help: "Scraping runs launched.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "runs_finished_total",
			Help: "Runs that reached a terminal status.",
		}, []string{"status"}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "run_poll_errors_total",
			Help: "Failed run poll attempts.",
		}),
		leadsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "leads_ingested_total",
			Help: "Scraped leads processed during run finalization.",
		}, []string{"result"}),
		outreachSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "outreach_sends_total",
			Help: "Outreach messages attempted per contact.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "outreach_deliveries_total",
			Help: "Delivery jobs handed to the outreach channel.",
		}, []string{"result"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentreach", Name: "phantombuster_errors_total",
			Help: "Failed calls to the scraping platform.",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.runsLaunched, m.runsFinished, m.pollErrors, m.leadsIngested,
		m.outreachSends, m.deliveries, m.upstreamErrors,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) RunLaunched() {
	if m != nil {
		m.runsLaunched.Inc()
	}
}

func (m *Metrics) RunFinished(status string) {
	if m != nil {
		m.runsFinished.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) PollError() {
	if m != nil {
		m.pollErrors.Inc()
	}
}

func (m *Metrics) LeadIngested(ok bool) {
	if m != nil {
		m.leadsIngested.WithLabelValues(result(ok)).Inc()
	}
}

func (m *Metrics) OutreachSend(ok bool) {
	if m != nil {
		m.outreachSends.WithLabelValues(result(ok)).Inc()
	}
}

func (m *Metrics) Delivery(ok bool) {
	if m != nil {
		m.deliveries.WithLabelValues(result(ok)).Inc()
	}
}

func (m *Metrics) UpstreamError(operation string) {
	if m != nil {
		m.upstreamErrors.WithLabelValues(operation).Inc()
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
