// Package metrics registers the prometheus collectors shared across the
// document actors, dispatcher, and transport layer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpdatesAppliedTotal counts successfully committed document updates,
	// across all documents.
	UpdatesAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collab",
		Name:      "updates_applied_total",
		Help:      "Number of update requests committed by a document actor.",
	})

	// ServerBehindTotal counts update requests rejected because the client
	// claimed a version the server never emitted.
	ServerBehindTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collab",
		Name:      "updates_server_behind_total",
		Help:      "Number of update requests rejected as server_behind.",
	})

	// DocumentCorruptedTotal counts update requests whose transformed
	// result would have left a document containing a non-insert op.
	DocumentCorruptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collab",
		Name:      "updates_document_corrupted_total",
		Help:      "Number of update requests rejected as document_corrupted.",
	})

	// ActorRestartsTotal counts document actor goroutines the supervisor
	// restarted after a panic.
	ActorRestartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collab",
		Name:      "actor_restarts_total",
		Help:      "Number of document actors restarted after a panic.",
	})

	// ActiveDocuments reports the number of documents with a live actor.
	ActiveDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "collab",
		Name:      "active_documents",
		Help:      "Number of documents with a currently running actor.",
	})

	// TransformDuration observes wall-clock time spent inside an actor's
	// update handling, including any history replay.
	TransformDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collab",
		Name:      "transform_duration_seconds",
		Help:      "Time spent transforming and applying a single update.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Registry bundles the collectors above into a fresh prometheus.Registry.
// cmd/collabd exposes it on /metrics; tests may construct their own to
// avoid the default global registry's cross-test state.
func Registry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		UpdatesAppliedTotal,
		ServerBehindTotal,
		DocumentCorruptedTotal,
		ActorRestartsTotal,
		ActiveDocuments,
		TransformDuration,
	)
	return r
}
