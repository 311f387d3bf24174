package scrapeengine

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/promscrape/pkg/prom"
)

// decodeProtoDelimited reads a delimited-protobuf body (media type
// application/vnd.google.protobuf) to exhaustion, converting each wire
// dto.MetricFamily into this module's own prom.MetricFamily. Protobuf
// decoding is an external collaborator per the original scope — this is the
// one place expfmt's full decoder is used; the text branch is this module's
// own parser (pkg/prom), never expfmt's.
func decodeProtoDelimited(r io.Reader) ([]*prom.MetricFamily, error) {
	dec := expfmt.NewDecoder(r, expfmt.NewFormat(expfmt.TypeProtoDelim))

	var out []*prom.MetricFamily
	for {
		var wire dto.MetricFamily
		if err := dec.Decode(&wire); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		out = append(out, convertWireFamily(&wire))
	}
	return out, nil
}

func convertWireFamily(wire *dto.MetricFamily) *prom.MetricFamily {
	mf := &prom.MetricFamily{
		Name: wire.GetName(),
		Kind: convertWireKind(wire.GetType()),
		Help: wire.GetHelp(),
	}
	for _, wm := range wire.GetMetric() {
		mf.Metrics = append(mf.Metrics, convertWireMetric(mf.Kind, wm))
	}
	return mf
}

func convertWireKind(t dto.MetricType) prom.MetricKind {
	switch t {
	case dto.MetricType_COUNTER:
		return prom.KindCounter
	case dto.MetricType_GAUGE:
		return prom.KindGauge
	case dto.MetricType_HISTOGRAM:
		return prom.KindHistogram
	case dto.MetricType_SUMMARY:
		return prom.KindSummary
	default:
		return prom.KindUntyped
	}
}

func convertWireMetric(kind prom.MetricKind, wm *dto.Metric) prom.Metric {
	m := prom.Metric{TimestampMs: wm.GetTimestampMs()}
	for _, lp := range wm.GetLabel() {
		m.Labels = append(m.Labels, prom.LabelPair{Name: lp.GetName(), Value: lp.GetValue()})
	}

	switch kind {
	case prom.KindCounter:
		m.Value = wm.GetCounter().GetValue()
	case prom.KindGauge:
		m.Value = wm.GetGauge().GetValue()
	case prom.KindHistogram:
		h := wm.GetHistogram()
		m.SampleSum = h.GetSampleSum()
		m.SampleCount = h.GetSampleCount()
		for _, b := range h.GetBucket() {
			m.Buckets = append(m.Buckets, prom.Bucket{
				UpperBound:      b.GetUpperBound(),
				CumulativeCount: b.GetCumulativeCount(),
			})
		}
	case prom.KindSummary:
		s := wm.GetSummary()
		m.SampleSum = s.GetSampleSum()
		m.SampleCount = uint64(s.GetSampleCount())
		for _, q := range s.GetQuantile() {
			m.Quantiles = append(m.Quantiles, prom.Quantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
		}
	default:
		m.Value = wm.GetUntyped().GetValue()
	}
	return m
}
