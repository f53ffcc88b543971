// Package metrics exposes the tracker's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maintenance-tracker/internal/status"
)

const namespace = "maintenance"

// Recorder holds the registered instruments. A nil *Recorder records nothing.
type Recorder struct {
	reg             *prom.Registry
	machines        *prom.GaugeVec
	reminders       *prom.CounterVec
	pushResults     *prom.CounterVec
	httpRequests    *prom.CounterVec
	httpDuration    *prom.HistogramVec
	lastScanSeconds prom.Gauge
}

// NewRecorder registers the instruments on reg, or on a fresh registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		machines: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "machines",
			Help:      "Machines per derived status at the last scan",
		}, []string{"status"}),
		reminders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_dispatched_total",
			Help:      "Reminders handed to the push workers, by status",
		}, []string{"status"}),
		pushResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "push_results_total",
			Help:      "Web push deliveries by result",
		}, []string{"result"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		lastScanSeconds: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_timestamp_seconds",
			Help:      "Unix time of the last completed reminder scan",
		}),
	}
	reg.MustRegister(r.machines, r.reminders, r.pushResults, r.httpRequests, r.httpDuration, r.lastScanSeconds)
	return r
}

// Registry returns the registry the instruments live on.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// SetStatusCounts replaces the per-status machine gauge.
func (r *Recorder) SetStatusCounts(counts map[status.Status]int, at time.Time) {
	if r == nil {
		return
	}
	for s, n := range counts {
		r.machines.WithLabelValues(string(s)).Set(float64(n))
	}
	r.lastScanSeconds.Set(float64(at.Unix()))
}

func (r *Recorder) IncReminder(s status.Status) {
	if r == nil {
		return
	}
	r.reminders.WithLabelValues(string(s)).Inc()
}

// IncPushResult counts a delivery; result is "sent", "expired" or "failed".
func (r *Recorder) IncPushResult(result string) {
	if r == nil {
		return
	}
	r.pushResults.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveHTTP(method, route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prom.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
