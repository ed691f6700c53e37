package cli

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/observability"
)

func TestMetricsHooks(t *testing.T) {
	m := newMetrics(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnSchedule("node", "a", true)
	m.OnRender("edge", "a-b", false, time.Millisecond)
	m.OnSuppress("edge")
	m.OnZoom(1.5, true)
	m.OnZoomRejected(3)
	m.OnIntent(ctx, "create_node", nil)
	m.OnIntent(ctx, "create_edge", errors.New(errors.ErrCodeInvalidGraph, "duplicate"))
	m.OnStoreGet(ctx, "memory", false, time.Millisecond)
	m.OnStoreSet(ctx, "memory", 512, time.Millisecond)
	m.OnStoreError(ctx, "redis", "get", errors.New(errors.ErrCodeStore, "down"))
	m.OnStoreError(ctx, "redis", "set", context.DeadlineExceeded)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderScheduled.WithLabelValues("node", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderSuppress.WithLabelValues("edge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.zoomTotal.WithLabelValues("true")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.zoomLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.zoomRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intentTotal.WithLabelValues("create_node", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intentTotal.WithLabelValues("create_edge", "refused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("memory", "get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("memory", "set", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeErrors.WithLabelValues("redis", "get", "STORE_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeErrors.WithLabelValues("redis", "set", "unknown")))
}

func TestMetricsRegister(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := newMetrics(prometheus.NewRegistry())
	m.register()

	observability.Intent().OnIntent(context.Background(), "delete_node", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intentTotal.WithLabelValues("delete_node", "applied")))
}
