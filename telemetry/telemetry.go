// Package telemetry counts objective-function evaluations and sample
// failures for export to Prometheus.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives one call per objective evaluation. Mode is "value",
// "gradient" or "hessian"; evalType is the accumulator transition used.
type Recorder interface {
	ObserveEvaluation(mode, evalType string)
	ObserveFailure(mode string)
	ObserveValue(value float64)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveEvaluation(string, string) {}
func (Nop) ObserveFailure(string)            {}
func (Nop) ObserveValue(float64)             {}

const namespace = "meshqual"

// Prometheus is a Recorder backed by client_golang collectors.
type Prometheus struct {
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	value       prometheus.Gauge
}

// NewPrometheus registers the collectors with reg, or with the default
// registerer when reg is nil. Registering twice with the same registry
// returns the collectors already registered.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective function evaluations by mode and accumulator transition",
		}, []string{"mode", "eval_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_failures_total",
			Help:      "Objective evaluations aborted by a failing quality sample",
		}, []string{"mode"}),
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "objective_value",
			Help:      "Most recent successful objective value",
		}),
	}
	var err error
	if p.evaluations, err = register(reg, p.evaluations); err != nil {
		return nil, err
	}
	if p.failures, err = register(reg, p.failures); err != nil {
		return nil, err
	}
	if p.value, err = register(reg, p.value); err != nil {
		return nil, err
	}
	return p, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("registering telemetry collector: %w", err)
	}
	return c, nil
}

func (p *Prometheus) ObserveEvaluation(mode, evalType string) {
	p.evaluations.WithLabelValues(mode, evalType).Inc()
}

func (p *Prometheus) ObserveFailure(mode string) { p.failures.WithLabelValues(mode).Inc() }

func (p *Prometheus) ObserveValue(v float64) { p.value.Set(v) }
