package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	StepsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_steps_total", Help: "Simulation steps applied"})

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_events_total", Help: "Applied events by kind"},
		[]string{"kind"},
	)
	EventVolumeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_event_volume_total", Help: "Applied event volume by kind"},
		[]string{"kind"},
	)

	ShiftsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_reference_shifts_total", Help: "One-tick reference price shifts by direction"},
		[]string{"direction"},
	)
	ReinitsTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_reinits_total", Help: "Full book reinitializations"})
	ClockStallsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_clock_stalls_total", Help: "Degenerate clock states recovered by reinitialization"})

	NoLiquidityTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_market_no_liquidity_total", Help: "Market orders dropped against an empty opposite window"})

	FillsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_fills_total", Help: "Partial fills produced by the matching book"})
	FillVolumeTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "sim_fill_volume_total", Help: "Volume filled in the matching book"})
)

// Init registers every collector on a fresh registry.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		StepsTotal, EventsTotal, EventVolumeTotal,
		ShiftsTotal, ReinitsTotal, ClockStallsTotal,
		NoLiquidityTotal, FillsTotal, FillVolumeTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
