package memory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// storeMetrics counts the buffer pool's cache traffic. Built from whatever
// meter the caller wires in; the default noop meter makes every Add free.
type storeMetrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
	flushes   metric.Int64Counter
}

func newStoreMetrics(meter metric.Meter) (*storeMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("pagecore")
	}

	hits, err := meter.Int64Counter("pagecore.bufferpool.hits",
		metric.WithDescription("Page requests served from the cache"))
	if err != nil {
		return nil, fmt.Errorf("create hits counter: %w", err)
	}
	misses, err := meter.Int64Counter("pagecore.bufferpool.misses",
		metric.WithDescription("Page requests loaded from disk"))
	if err != nil {
		return nil, fmt.Errorf("create misses counter: %w", err)
	}
	evictions, err := meter.Int64Counter("pagecore.bufferpool.evictions",
		metric.WithDescription("Pages evicted from the cache"))
	if err != nil {
		return nil, fmt.Errorf("create evictions counter: %w", err)
	}
	flushes, err := meter.Int64Counter("pagecore.bufferpool.flushes",
		metric.WithDescription("Pages written back to disk"))
	if err != nil {
		return nil, fmt.Errorf("create flushes counter: %w", err)
	}

	return &storeMetrics{
		hits:      hits,
		misses:    misses,
		evictions: evictions,
		flushes:   flushes,
	}, nil
}

func (m *storeMetrics) add(c metric.Int64Counter) {
	c.Add(context.Background(), 1)
}
