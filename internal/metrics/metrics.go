package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every BeichtBot collector. It is served by Server.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var outcomesCounter = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "beichtbot_pipeline_outcomes_total",
	Help: "Terminal outcomes of the moderation pipeline by operation and result.",
}, []string{"operation", "outcome", "reason"})

var flagsCounter = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "beichtbot_advisory_flags_total",
	Help: "Advisory flags raised on published content.",
}, []string{"flag"})

var deliveriesCounter = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "beichtbot_deliveries_total",
	Help: "Hand-offs to Discord by operation and status.",
}, []string{"operation", "status"})

var persistenceFailures = factory.NewCounter(prometheus.CounterOpts{
	Name: "beichtbot_persistence_failures_total",
	Help: "State writes that failed after a message was delivered.",
})

var pipelineDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "beichtbot_pipeline_duration_seconds",
	Help:    "Time spent in the moderation pipeline, delivery included.",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"operation"})

var commandsCounter = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "beichtbot_commands_total",
	Help: "Slash commands and modal submissions handled.",
}, []string{"command"})

// ObserveOutcome counts a finished pipeline run. reason is empty for
// accepted submissions.
func ObserveOutcome(operation, outcome, reason string) {
	outcomesCounter.WithLabelValues(operation, outcome, reason).Inc()
}

func ObserveFlag(flag string) {
	flagsCounter.WithLabelValues(flag).Inc()
}

func ObserveDelivery(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	deliveriesCounter.WithLabelValues(operation, status).Inc()
}

func ObservePersistenceFailure() {
	persistenceFailures.Inc()
}

func ObserveDuration(operation string, started time.Time) {
	pipelineDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func ObserveCommand(name string) {
	commandsCounter.WithLabelValues(name).Inc()
}
