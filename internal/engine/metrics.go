package engine

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourorg/collateral-engine/internal/numeric"
)

// engineMetrics holds Prometheus metrics for the engine.
type engineMetrics struct {
	operations   *prometheus.CounterVec
	breakerTrips *prometheus.CounterVec
	liquidations prometheus.Counter
	totalDebt    prometheus.Gauge
}

// newEngineMetrics builds and registers the engine's metrics. A nil
// registerer disables collection.
func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	if reg == nil {
		return nil
	}
	m := &engineMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collateral_engine_operations_total",
				Help: "Total number of engine operations processed",
			},
			[]string{"op", "status"},
		),
		breakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collateral_engine_breaker_trips_total",
				Help: "Total number of circuit breaker trips",
			},
			[]string{"asset"},
		),
		liquidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "collateral_engine_liquidations_total",
				Help: "Total number of completed liquidations",
			},
		),
		totalDebt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "collateral_engine_total_debt",
				Help: "Outstanding debt across all accounts, in whole debt units",
			},
		),
	}

	reg.MustRegister(
		m.operations,
		m.breakerTrips,
		m.liquidations,
		m.totalDebt,
	)

	return m
}

func (m *engineMetrics) observeOperation(op, status string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, status).Inc()
}

func (m *engineMetrics) observeTrip(asset string) {
	if m == nil {
		return
	}
	m.breakerTrips.WithLabelValues(asset).Inc()
}

func (m *engineMetrics) observeLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

func (m *engineMetrics) observeTotalDebt(debt *big.Int) {
	if m == nil {
		return
	}
	whole := new(big.Int).Quo(debt, numeric.Wad)
	f, _ := new(big.Float).SetInt(whole).Float64()
	m.totalDebt.Set(f)
}
