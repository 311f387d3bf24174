// Package eventbuilder implements C5: turning a parsed prom.MetricFamily,
// plus delta-cache context for Histogram/Summary families, into the
// normalized events the scrape engine publishes.
package eventbuilder

import (
	"strconv"
	"time"

	"github.com/obsidianstack/promscrape/internal/deltacache"
	"github.com/obsidianstack/promscrape/pkg/event"
	"github.com/obsidianstack/promscrape/pkg/prom"
)

// Build returns the events derived from mf for one scrape of url, using
// cache to compute Histogram/Summary deltas and requestTime as the
// timestamp fallback for samples with TimestampMs == 0. Events whose
// Histogram/Summary observation is the first for its cache key are omitted,
// per the first-sample-suppression rule.
func Build(cache *deltacache.Cache, url string, mf *prom.MetricFamily, requestTime time.Time) []event.Event {
	events := make([]event.Event, 0, len(mf.Metrics))
	for _, m := range mf.Metrics {
		if e, ok := buildOne(cache, url, mf, m, requestTime); ok {
			events = append(events, e)
		}
	}
	return events
}

func buildOne(cache *deltacache.Cache, url string, mf *prom.MetricFamily, m prom.Metric, requestTime time.Time) (event.Event, bool) {
	ts := requestTime
	if m.TimestampMs != 0 {
		ts = time.UnixMilli(m.TimestampMs)
	}

	payload := make(map[string]string, len(m.Labels)+len(m.Buckets)+len(m.Quantiles)+1)
	payload["Type"] = mf.Kind.String()
	for _, l := range m.Labels {
		payload["label_"+l.Name] = l.Value
	}

	e := event.Event{
		ProviderName: url,
		Timestamp:    ts,
		Payload:      payload,
	}

	switch mf.Kind {
	case prom.KindCounter, prom.KindGauge, prom.KindUntyped:
		e.Metadata = event.Metadata{
			Kind:        event.KindMetric,
			MetricName:  mf.Name,
			MetricValue: strconv.FormatFloat(m.Value, 'g', -1, 64),
		}
		return e, true

	case prom.KindHistogram:
		for _, b := range m.Buckets {
			payload["bucket_"+formatFloat(b.UpperBound)] = strconv.FormatUint(b.CumulativeCount, 10)
		}
		delta, ok := cache.ObserveHistogram(url, mf.Name, m)
		if !ok {
			return event.Event{}, false
		}
		e.Metadata = event.Metadata{
			Kind:        event.KindAggregatedMetric,
			MetricName:  mf.Name,
			MetricSum:   strconv.FormatFloat(delta.Sum, 'g', -1, 64),
			MetricCount: strconv.FormatUint(delta.Count, 10),
		}
		return e, true

	case prom.KindSummary:
		for _, q := range m.Quantiles {
			payload["quantile_"+formatFloat(q.Quantile)] = strconv.FormatFloat(q.Value, 'g', -1, 64)
		}
		delta, ok := cache.ObserveSummary(url, mf.Name, m)
		if !ok {
			return event.Event{}, false
		}
		e.Metadata = event.Metadata{
			Kind:        event.KindAggregatedMetric,
			MetricName:  mf.Name,
			MetricSum:   strconv.FormatFloat(delta.Sum, 'g', -1, 64),
			MetricCount: strconv.FormatUint(delta.Count, 10),
		}
		return e, true
	}

	return event.Event{}, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
