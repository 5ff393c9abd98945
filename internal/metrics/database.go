package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBConnectionsOpen is the total number of open connections to the database
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	// DBConnectionsInUse is the number of database connections currently in use
	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	DBConnectionsMaxOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_max_open",
			Help:      "Maximum number of open database connections allowed",
		},
	)

	// DBQueryDuration records storage operation latency
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// PoolStats is a driver-neutral snapshot of connection pool usage.
type PoolStats struct {
	Open    int
	InUse   int
	Idle    int
	MaxOpen int
}

// PoolStatter is implemented by storage backends that expose pool usage.
type PoolStatter interface {
	PoolStats() PoolStats
}

// DBCollector periodically copies pool statistics into gauges.
type DBCollector struct {
	source   PoolStatter
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewDBCollector(source PoolStatter) *DBCollector {
	return &DBCollector{
		source:   source,
		stopChan: make(chan struct{}),
	}
}

// Start collects immediately and then every interval until ctx is done or
// Stop is called.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *DBCollector) collect() {
	if c.source == nil {
		return
	}

	stat := c.source.PoolStats()
	DBConnectionsOpen.Set(float64(stat.Open))
	DBConnectionsInUse.Set(float64(stat.InUse))
	DBConnectionsIdle.Set(float64(stat.Idle))
	DBConnectionsMaxOpen.Set(float64(stat.MaxOpen))
}

// RecordQuery records metrics for a storage operation. Call it with defer:
//
//	defer func(start time.Time) { metrics.RecordQuery("events_list", start, err) }(time.Now())
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		errorType := "query_error"
		switch {
		case errors.Is(err, context.Canceled):
			errorType = "canceled"
		case errors.Is(err, context.DeadlineExceeded):
			errorType = "timeout"
		}
		DBErrors.WithLabelValues(operation, errorType).Inc()
	}
}
