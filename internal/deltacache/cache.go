// Package deltacache remembers the last histogram/summary observation per
// (URL, metric name, label set) so the scrape engine can emit the delta
// aggregate instead of the raw cumulative sum/count.
package deltacache

import (
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/obsidianstack/promscrape/pkg/prom"
)

// Delta is the aggregate change observed between two consecutive samples for
// one key.
type Delta struct {
	MetricName string
	Sum        float64
	Count      uint64
}

type entry struct {
	sampleSum   float64
	sampleCount uint64
}

// Cache is a concurrent (url, metric name, label set) -> last-observation
// memory. A single Cache is shared by every per-URL scrape loop; distinct
// URLs occupy disjoint key spaces within the same map, so the map itself
// must tolerate concurrent access.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[uint64]*entry)}
}

// ObserveHistogram records m's sum/count under (url, name, m.Labels) and
// returns the delta since the previous observation of that key, or ok=false
// if this is the first observation (first-sample suppression).
func (c *Cache) ObserveHistogram(url, name string, m prom.Metric) (d Delta, ok bool) {
	return c.observe(url, name, m.Labels, m.SampleSum, m.SampleCount)
}

// ObserveSummary is the Summary analogue of ObserveHistogram.
func (c *Cache) ObserveSummary(url, name string, m prom.Metric) (d Delta, ok bool) {
	return c.observe(url, name, m.Labels, m.SampleSum, m.SampleCount)
}

func (c *Cache) observe(url, name string, labels []prom.LabelPair, sum float64, count uint64) (Delta, bool) {
	key := hashKey(seriesKey(url, name, labels))

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.entries[key]
	if !ok {
		c.entries[key] = &entry{sampleSum: sum, sampleCount: count}
		return Delta{}, false
	}

	d := Delta{
		MetricName: name,
		Sum:        clampNonNegativeFloat(sum - prev.sampleSum),
		Count:      clampNonNegativeUint(count, prev.sampleCount),
	}
	prev.sampleSum = sum
	prev.sampleCount = count
	return d, true
}

// clampNonNegativeFloat implements the clamp-to-zero counter-reset policy
// for sample_sum: a target restart makes the cumulative sum go backward,
// which would otherwise surface as a negative delta.
func clampNonNegativeFloat(d float64) float64 {
	if d < 0 {
		return 0
	}
	return d
}

// clampNonNegativeUint is the sample_count analogue, applied independently
// of the sum clamp since a restart can affect one without the other.
func clampNonNegativeUint(current, previous uint64) uint64 {
	if current < previous {
		return 0
	}
	return current - previous
}

// seriesKey builds the canonical, label-order-independent identity string
// for a (url, metric, label set) triple: url, then name, then each label as
// "name:value", with labels sorted lexicographically by name so the string
// — and therefore the cache key — does not depend on wire order.
func seriesKey(url, name string, labels []prom.LabelPair) string {
	sorted := make([]prom.LabelPair, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString(url)
	b.WriteByte(';')
	b.WriteString(name)
	for _, l := range sorted {
		b.WriteByte(';')
		b.WriteString(l.Name)
		b.WriteByte(':')
		b.WriteString(l.Value)
	}
	return b.String()
}

func hashKey(s string) uint64 {
	return xxhash.Sum64String(s)
}
