// Package event defines the normalized pipeline event this module emits and
// the Subject that multiplexes events to observers.
package event

import "time"

// MetadataKind distinguishes a single-value observation from an aggregated
// (delta) observation.
type MetadataKind string

const (
	KindMetric           MetadataKind = "metric"
	KindAggregatedMetric MetadataKind = "aggregatedMetric"
)

// Metadata annotates an Event with the metric it was built from. A
// Histogram/Summary sample that is the first observed for its delta-cache
// key gets no Metadata and produces no Event at all — see
// internal/eventbuilder.
type Metadata struct {
	Kind MetadataKind

	// MetricName is set for both kinds.
	MetricName string

	// MetricValue is set for KindMetric — the stringified single value.
	MetricValue string

	// MetricSum, MetricCount are set for KindAggregatedMetric — the
	// stringified delta sum/count since the previous observation.
	MetricSum   string
	MetricCount string
}

// Event is one normalized pipeline event. ProviderName carries the scraped
// URL; Payload carries the flattened label/bucket/quantile keys per
// internal/eventbuilder.
type Event struct {
	ProviderName string
	Timestamp    time.Time
	Payload      map[string]string
	Metadata     Metadata
}
