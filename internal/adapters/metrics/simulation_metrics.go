package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// SimulationMetricsCollector exports run progress and evaluation state
// to Prometheus. It observes the runner; nothing in the domain knows
// about it.
type SimulationMetricsCollector struct {
	stepsTotal    *prometheus.CounterVec
	currentStep   *prometheus.GaugeVec
	metricValues  *prometheus.GaugeVec
	goalScores    *prometheus.GaugeVec
	policyEffects *prometheus.CounterVec
	stepErrors    *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
}

// NewSimulationMetricsCollector creates a new simulation metrics collector
func NewSimulationMetricsCollector() *SimulationMetricsCollector {
	return &SimulationMetricsCollector{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "steps_total",
				Help:      "Total simulation steps executed per experiment",
			},
			[]string{"experiment_id"},
		),
		currentStep: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "current_step",
				Help:      "Latest completed step per experiment",
			},
			[]string{"experiment_id"},
		),
		metricValues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "metric_value",
				Help:      "Current value of each performance metric",
			},
			[]string{"experiment_id", "metric_id"},
		),
		goalScores: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goal_score",
				Help:      "Current score of each active goal",
			},
			[]string{"experiment_id", "goal_id", "status"},
		),
		policyEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "policy_effects_total",
				Help:      "Policy actuations by policy and action",
			},
			[]string{"experiment_id", "policy_id", "action"},
		),
		stepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "step_errors_total",
				Help:      "Non-fatal step faults recorded in snapshots",
			},
			[]string{"experiment_id"},
		),
		runsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_finished_total",
				Help:      "Completed runs by final state",
			},
			[]string{"experiment_id", "state"},
		),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	collectors := []prometheus.Collector{
		c.stepsTotal,
		c.currentStep,
		c.metricValues,
		c.goalScores,
		c.policyEffects,
		c.stepErrors,
		c.runsFinished,
	}
	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// StepCompleted exports one snapshot
func (c *SimulationMetricsCollector) StepCompleted(experimentID string, snap *world.Snapshot) {
	c.stepsTotal.WithLabelValues(experimentID).Inc()
	c.currentStep.WithLabelValues(experimentID).Set(float64(snap.Step))

	for id, value := range snap.Evaluation.Metrics {
		c.metricValues.WithLabelValues(experimentID, id).Set(value)
	}
	for id, score := range snap.Evaluation.Scores {
		c.goalScores.WithLabelValues(experimentID, id, string(score.Status)).Set(score.Score)
	}
	for _, effect := range snap.Effects {
		c.policyEffects.WithLabelValues(experimentID, effect.PolicyID, effect.Action).Inc()
	}
	if n := len(snap.Errors); n > 0 {
		c.stepErrors.WithLabelValues(experimentID).Add(float64(n))
	}
}

// RunFinished exports the final run state
func (c *SimulationMetricsCollector) RunFinished(experimentID string, state string, steps int64) {
	c.runsFinished.WithLabelValues(experimentID, state).Inc()
	c.currentStep.WithLabelValues(experimentID).Set(float64(steps))
}
