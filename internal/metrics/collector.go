// Package metrics exports engine progress as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"genevo/internal/evo"
	"genevo/internal/model"
)

const runLabel = "run_id"

// Collector holds the genevo metric families. Each run reports through
// its own Observer.
type Collector struct {
	generations *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	bestFitness *prometheus.GaugeVec
	meanFitness *prometheus.GaugeVec
}

// New creates the metric families and registers them on reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genevo_generations_total",
			Help: "Generations accepted by the engine.",
		}, []string{runLabel}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genevo_evaluations_total",
			Help: "Fitness evaluations performed.",
		}, []string{runLabel}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genevo_best_fitness",
			Help: "Best fitness in the latest generation.",
		}, []string{runLabel}),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genevo_mean_fitness",
			Help: "Mean fitness in the latest generation.",
		}, []string{runLabel}),
	}
	if reg == nil {
		return c, nil
	}
	for _, collector := range []prometheus.Collector{c.generations, c.evaluations, c.bestFitness, c.meanFitness} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observer returns an evo.Observer that records diagnostics under runID.
func (c *Collector) Observer(runID string) evo.Observer {
	return &runObserver{
		generations: c.generations.WithLabelValues(runID),
		evaluations: c.evaluations.WithLabelValues(runID),
		bestFitness: c.bestFitness.WithLabelValues(runID),
		meanFitness: c.meanFitness.WithLabelValues(runID),
	}
}

type runObserver struct {
	generations prometheus.Counter
	evaluations prometheus.Counter
	bestFitness prometheus.Gauge
	meanFitness prometheus.Gauge

	mu   sync.Mutex
	seen int64
}

func (o *runObserver) ObserveGeneration(diag model.GenerationDiagnostics) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generations.Inc()
	// Diagnostics carry a running total; the counter only moves forward.
	if delta := diag.Evaluations - o.seen; delta > 0 {
		o.evaluations.Add(float64(delta))
		o.seen = diag.Evaluations
	}
	o.bestFitness.Set(diag.BestFitness)
	o.meanFitness.Set(diag.MeanFitness)
}
