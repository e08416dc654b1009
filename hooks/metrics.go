package hooks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/albert-team/mongol/core"
)

// Metrics counts intercepted writes.
type Metrics struct {
	// Started counts calls entering the before phase, by operation and kind.
	Started *prometheus.CounterVec
	// Completed counts calls whose after phase ran, by operation and kind.
	Completed *prometheus.CounterVec
	// Failed counts failures, by operation and the phase that failed.
	Failed *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Started: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_started_total",
				Help:      "Total number of intercepted collection writes",
			},
			[]string{"operation", "kind"},
		),
		Completed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_completed_total",
				Help:      "Total number of intercepted collection writes that succeeded",
			},
			[]string{"operation", "kind"},
		),
		Failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_failed_total",
				Help:      "Total number of intercepted collection writes that failed, by phase",
			},
			[]string{"operation", "event"},
		),
	}
}

// Hook returns the hook feeding m.
func (m *Metrics) Hook() core.Hook {
	return core.Hook{
		Before: func(_ context.Context, hc core.HookContext, _ core.Args) (core.Replacement, error) {
			m.Started.WithLabelValues(hc.Operation.String(), hc.Kind.String()).Inc()
			return core.Keep(), nil
		},
		After: func(_ context.Context, hc core.HookContext, _ any) error {
			m.Completed.WithLabelValues(hc.Operation.String(), hc.Kind.String()).Inc()
			return nil
		},
		Error: func(_ context.Context, hc core.HookContext, _ error) error {
			m.Failed.WithLabelValues(hc.Operation.String(), hc.Event.String()).Inc()
			return nil
		},
	}
}
