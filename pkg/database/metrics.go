package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStater is implemented by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	pool    PoolStater
	service string
	metrics []poolMetric
}

// NewPoolStatsCollector returns a collector reading pool on every scrape.
func NewPoolStatsCollector(pool PoolStater, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, []string{"service"}, nil)
	}
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue

	return &PoolStatsCollector{
		pool:    pool,
		service: service,
		metrics: []poolMetric{
			{desc("db_pool_acquired_connections", "Connections currently acquired."), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
			{desc("db_pool_idle_connections", "Connections currently idle."), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
			{desc("db_pool_total_connections", "Connections currently open."), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }},
			{desc("db_pool_max_connections", "Configured connection limit."), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
			{desc("db_pool_acquire_count_total", "Connection acquires."), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }},
			{desc("db_pool_acquire_duration_seconds_total", "Time spent acquiring connections."), counter,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }},
			{desc("db_pool_empty_acquire_count_total", "Acquires that waited for a free connection."), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }},
			{desc("db_pool_canceled_acquire_count_total", "Acquires canceled by their context."), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stat), c.service)
	}
}

// RegisterPoolMetrics registers a PoolStatsCollector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool PoolStater, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
