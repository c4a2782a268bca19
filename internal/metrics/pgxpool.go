package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/unwind/internal/db"
)

// RegisterPoolMetrics exposes the executor's connection pool statistics as
// Prometheus gauges. All gauges read zero while the executor is
// disconnected.
func RegisterPoolMetrics(exec *db.Executor) {
	stat := func(read func(*pgxpool.Stat) int32) func() float64 {
		return func() float64 {
			s := exec.Stat()
			if s == nil {
				return 0
			}
			return float64(read(s))
		}
	}

	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, stat(func(s *pgxpool.Stat) int32 { return s.AcquiredConns() })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_max_conns",
			Help: "Maximum number of connections in the pool",
		}, stat(func(s *pgxpool.Stat) int32 { return s.MaxConns() })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, stat(func(s *pgxpool.Stat) int32 { return s.TotalConns() })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, stat(func(s *pgxpool.Stat) int32 { return s.IdleConns() })),
	)
}
