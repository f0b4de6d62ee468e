package metrics

import (
	coremetrics "github.com/kilianp07/pvbess/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduler run outcomes in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	gap       *prometheus.GaugeVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total number of scheduler runs",
	}, []string{"engine", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_solve_duration_seconds",
		Help:    "Wall-clock time spent producing a schedule",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"engine"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scheduler_objective_revenue",
		Help: "Net revenue of the most recent schedule, currency units",
	}, []string{"engine"})
	gap := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scheduler_optimality_gap",
		Help: "Relative optimality gap of the most recent exact run",
	}, []string{"engine"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(gap); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gap = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, objective: objective, gap: gap}, nil
}

// RecordRun updates the run counter, duration histogram and outcome gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Engine, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Engine).Observe(ev.SolveTime.Seconds())
	s.objective.WithLabelValues(ev.Engine).Set(ev.Objective)
	s.gap.WithLabelValues(ev.Engine).Set(ev.Gap)
	return nil
}
