package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/observability"
)

// metrics exports the observability hooks as Prometheus collectors.
type metrics struct {
	renderScheduled *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	renderSuppress  *prometheus.CounterVec

	zoomTotal    *prometheus.CounterVec
	zoomRejected prometheus.Counter
	zoomLevel    prometheus.Gauge

	intentTotal *prometheus.CounterVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	storeBytes    prometheus.Histogram
	storeErrors   *prometheus.CounterVec

	connections prometheus.Gauge
	events      *prometheus.CounterVec
}

var (
	_ observability.RenderHooks   = (*metrics)(nil)
	_ observability.ViewportHooks = (*metrics)(nil)
	_ observability.IntentHooks   = (*metrics)(nil)
	_ observability.StoreHooks    = (*metrics)(nil)
)

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		renderScheduled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_render_scheduled_total",
			Help: "Debounced render requests by entity kind",
		}, []string{"kind", "coalesced"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digraph_render_duration_seconds",
			Help:    "Synchronous entity render duration",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~20ms
		}, []string{"kind", "changed"}),
		renderSuppress: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_render_suppressed_total",
			Help: "Bulk renders skipped during an edge drag",
		}, []string{"kind"}),
		zoomTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_zoom_total",
			Help: "Accepted zoom commands",
		}, []string{"animated"}),
		zoomRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "digraph_zoom_rejected_total",
			Help: "Relative zooms refused at the zoom bounds",
		}),
		zoomLevel: f.NewGauge(prometheus.GaugeOpts{
			Name: "digraph_zoom_level",
			Help: "Most recent accepted zoom level",
		}),
		intentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_intent_total",
			Help: "Owner intents by outcome",
		}, []string{"intent", "result"}),
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_store_operations_total",
			Help: "Document store operations",
		}, []string{"backend", "op", "result"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digraph_store_duration_seconds",
			Help:    "Document store operation duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"backend", "op"}),
		storeBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "digraph_store_document_bytes",
			Help:    "Size of written documents",
			Buckets: []float64{256, 1024, 4096, 16384, 65536, 262144},
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_store_errors_total",
			Help: "Failed document store operations by error code",
		}, []string{"backend", "op", "code"}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "digraph_connections",
			Help: "Open WebSocket connections",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "digraph_events_total",
			Help: "Client events by type and outcome",
		}, []string{"type", "result"}),
	}
}

// register installs m as the process-wide observability hooks.
func (m *metrics) register() {
	observability.SetRenderHooks(m)
	observability.SetViewportHooks(m)
	observability.SetIntentHooks(m)
	observability.SetStoreHooks(m)
}

func (m *metrics) OnSchedule(kind, _ string, coalesced bool) {
	m.renderScheduled.WithLabelValues(kind, strconv.FormatBool(coalesced)).Inc()
}

func (m *metrics) OnRender(kind, _ string, changed bool, d time.Duration) {
	m.renderDuration.WithLabelValues(kind, strconv.FormatBool(changed)).Observe(d.Seconds())
}

func (m *metrics) OnSuppress(kind string) {
	m.renderSuppress.WithLabelValues(kind).Inc()
}

func (m *metrics) OnZoom(k float64, animated bool) {
	m.zoomTotal.WithLabelValues(strconv.FormatBool(animated)).Inc()
	m.zoomLevel.Set(k)
}

func (m *metrics) OnZoomRejected(float64) {
	m.zoomRejected.Inc()
}

func (m *metrics) OnIntent(_ context.Context, intent string, err error) {
	result := "applied"
	if err != nil {
		result = "refused"
	}
	m.intentTotal.WithLabelValues(intent, result).Inc()
}

func (m *metrics) OnStoreGet(_ context.Context, backend string, hit bool, d time.Duration) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.storeOps.WithLabelValues(backend, "get", result).Inc()
	m.storeDuration.WithLabelValues(backend, "get").Observe(d.Seconds())
}

func (m *metrics) OnStoreSet(_ context.Context, backend string, size int, d time.Duration) {
	m.storeOps.WithLabelValues(backend, "set", "ok").Inc()
	m.storeDuration.WithLabelValues(backend, "set").Observe(d.Seconds())
	m.storeBytes.Observe(float64(size))
}

func (m *metrics) OnStoreError(_ context.Context, backend, op string, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = "unknown"
	}
	m.storeOps.WithLabelValues(backend, op, "error").Inc()
	m.storeErrors.WithLabelValues(backend, op, code).Inc()
}
