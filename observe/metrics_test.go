package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_RecordOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	metrics.RecordOperation(ctx, "cache", "primary", 5*time.Millisecond, nil)
	metrics.RecordOperation(ctx, "cache", "primary", 8*time.Millisecond, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	found := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true

			switch m.Name {
			case "fleet.op.total":
				sum := m.Data.(metricdata.Sum[int64])
				if got := sum.DataPoints[0].Value; got != 2 {
					t.Errorf("fleet.op.total = %d, want 2", got)
				}
			case "fleet.op.errors":
				sum := m.Data.(metricdata.Sum[int64])
				if got := sum.DataPoints[0].Value; got != 1 {
					t.Errorf("fleet.op.errors = %d, want 1", got)
				}
			}
		}
	}

	for _, name := range []string{"fleet.op.total", "fleet.op.errors", "fleet.op.duration_ms"} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestNopMetrics(t *testing.T) {
	metrics := NopMetrics()

	// Must not panic.
	metrics.RecordOperation(context.Background(), "cache", "", time.Millisecond, errors.New("boom"))
}
