package prom

// MetricKind identifies which payload a Metric carries. The zero value is
// KindUntyped, the default kind for a family never named in a "# TYPE" line.
type MetricKind int

const (
	KindUntyped MetricKind = iota
	KindCounter
	KindGauge
	KindHistogram
	KindSummary
)

// String returns the upper-case kind name used in event payloads.
func (k MetricKind) String() string {
	switch k {
	case KindCounter:
		return "COUNTER"
	case KindGauge:
		return "GAUGE"
	case KindHistogram:
		return "HISTOGRAM"
	case KindSummary:
		return "SUMMARY"
	default:
		return "UNTYPED"
	}
}

// LabelPair is one label dimension on a Metric. Metrics carry labels as an
// ordered list as parsed off the wire; equality for merging, deduplication,
// and the delta cache is set equality over (Name, Value) pairs, not order.
type LabelPair struct {
	Name  string
	Value string
}

// Bucket is one cumulative histogram bucket. UpperBound may be +Inf.
// Upper bounds are distinct within a histogram's bucket list.
type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// Quantile is one summary quantile observation.
type Quantile struct {
	Quantile float64
	Value    float64
}

// Metric is one observation within a MetricFamily. Labels excludes the
// reserved "le" (histogram) and "quantile" (summary) labels — those are
// folded into Buckets/Quantiles instead.
type Metric struct {
	Labels      []LabelPair
	TimestampMs int64

	// Value holds the payload for Counter, Gauge, and Untyped families.
	Value float64

	// SampleSum, SampleCount, Buckets hold the Histogram payload;
	// SampleSum, SampleCount, Quantiles hold the Summary payload.
	SampleSum   float64
	SampleCount uint64
	Buckets     []Bucket
	Quantiles   []Quantile
}

// MetricFamily groups same-named metrics sharing a kind and help text.
// Within one parse, a family's Name is unique among the returned families.
type MetricFamily struct {
	Name    string
	Kind    MetricKind
	Help    string
	Metrics []Metric
}
