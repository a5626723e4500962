package utils

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the console's instrumentation: API traffic seen
// by the gateway client and the refresh pipeline's cadence. It only
// matters for long-running watch sessions; one-shot commands never start
// the listener.
type MetricsCollector struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	pollCycles   *prometheus.CounterVec
	pollAlive    *prometheus.GaugeVec
	deriveTime   prometheus.Histogram
	staleCycles  prometheus.Counter
	renderSkips  prometheus.Counter
}

func NewMetricsCollector(enableRuntimeMetrics bool) *MetricsCollector {
	reg := prometheus.NewRegistry()

	if enableRuntimeMetrics {
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = reg.Register(collectors.NewGoCollector())
	}

	m := &MetricsCollector{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_api_requests_total",
			Help: "API requests issued by the gateway client, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vantage_api_request_duration_seconds",
			Help:    "API request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_poll_cycles_total",
			Help: "Completed poll cycles by view and outcome.",
		}, []string{"view", "outcome"}),
		pollAlive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vantage_poll_active",
			Help: "1 while a poll loop for the view is running.",
		}, []string{"view"}),
		deriveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vantage_derive_duration_seconds",
			Help:    "Time spent deriving metrics and the asset graph from a snapshot.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		staleCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vantage_stale_cycles_total",
			Help: "Refresh cycles that failed and left the previous snapshot rendered.",
		}),
		renderSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vantage_render_skips_total",
			Help: "Refresh cycles skipped because the snapshot fingerprint was unchanged.",
		}),
	}

	reg.MustRegister(m.apiRequests, m.apiDuration, m.pollCycles, m.pollAlive,
		m.deriveTime, m.staleCycles, m.renderSkips)
	return m
}

func (m *MetricsCollector) CountRequest(endpoint, code string) {
	m.apiRequests.WithLabelValues(endpoint, code).Inc()
}

func (m *MetricsCollector) ObserveRequestDuration(endpoint string, seconds float64) {
	m.apiDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (m *MetricsCollector) CountPollCycle(view, outcome string) {
	m.pollCycles.WithLabelValues(view, outcome).Inc()
}

func (m *MetricsCollector) SetPollAlive(view string, alive bool) {
	v := 0.0
	if alive {
		v = 1.0
	}
	m.pollAlive.WithLabelValues(view).Set(v)
}

func (m *MetricsCollector) ObserveDeriveDuration(seconds float64) {
	m.deriveTime.Observe(seconds)
}

func (m *MetricsCollector) CountStaleCycle() {
	m.staleCycles.Inc()
}

func (m *MetricsCollector) CountRenderSkip() {
	m.renderSkips.Inc()
}

func (m *MetricsCollector) TimeDerive(fn func()) {
	start := time.Now()
	fn()
	m.ObserveDeriveDuration(time.Since(start).Seconds())
}

func (m *MetricsCollector) StartServerWithContext(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("metrics server error: %w", err)
	}
}

func (m *MetricsCollector) GetRegistry() *prometheus.Registry {
	return m.registry
}
