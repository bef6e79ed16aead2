package composer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the controller's collectors. They are registered with the registerer given to
// WithRegisterer; without one they are created unregistered so several controllers can coexist.
type metrics struct {
	// edits counts accepted edits by kind (brush_kind, brush_placement, brush, operation)
	edits *prometheus.CounterVec

	// rejected counts rejected edits by reason
	rejected *prometheus.CounterVec

	// evaluations counts evaluator runs by result (ok, failed, discarded)
	evaluations *prometheus.CounterVec

	// coalesced counts edits absorbed into an in-flight recompute
	coalesced prometheus.Counter

	installs   prometheus.Counter
	uninstalls prometheus.Counter

	// duration tracks evaluation latency
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		edits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oxycsg_composer_edits_total",
			Help: "Accepted composition edits by kind",
		}, []string{"kind"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oxycsg_composer_rejected_edits_total",
			Help: "Rejected composition edits by reason",
		}, []string{"reason"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oxycsg_composer_evaluations_total",
			Help: "Boolean evaluations by result",
		}, []string{"result"}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Name: "oxycsg_composer_coalesced_edits_total",
			Help: "Edits that arrived during a recompute and were folded into the next one",
		}),
		installs: f.NewCounter(prometheus.CounterOpts{
			Name: "oxycsg_composer_installs_total",
			Help: "Results installed into the display",
		}),
		uninstalls: f.NewCounter(prometheus.CounterOpts{
			Name: "oxycsg_composer_uninstalls_total",
			Help: "Results removed from the display",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oxycsg_composer_evaluation_duration_seconds",
			Help:    "Boolean evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
	}
}
