package prom

import (
	"math"
	"strconv"
)

// sampleSuffix identifies which of the three suffix forms (if any) a raw
// sample name was resolved through, per the family-association algorithm
// below.
type sampleSuffix int

const (
	sfxNone sampleSuffix = iota
	sfxSum
	sfxCount
	sfxBucket
)

// resolveFamily implements the exposition format's family-association
// algorithm: a raw sample name is tested, in order, as an exact match, then
// as a _count/_sum/_bucket suffix reference into an existing
// histogram/summary family, and only failing all of those does it become (or
// reuse) its own Untyped family.
//
// A suffix reference requires at least one character before the suffix —
// "_count" on its own names a new family called "_count", not a suffix
// reference into a family named "".
func resolveFamily(st *parseState, rawName string) (*MetricFamily, sampleSuffix) {
	if mf, ok := st.byName[rawName]; ok {
		return mf, sfxNone
	}

	if base, ok := stripSuffix(rawName, "_count"); ok {
		if mf, ok := st.byName[base]; ok && (mf.Kind == KindHistogram || mf.Kind == KindSummary) {
			return mf, sfxCount
		}
	}
	if base, ok := stripSuffix(rawName, "_sum"); ok {
		if mf, ok := st.byName[base]; ok && (mf.Kind == KindHistogram || mf.Kind == KindSummary) {
			return mf, sfxSum
		}
	}
	if base, ok := stripSuffix(rawName, "_bucket"); ok {
		if mf, ok := st.byName[base]; ok && mf.Kind == KindHistogram {
			return mf, sfxBucket
		}
	}

	mf, _ := st.getOrCreate(rawName, KindUntyped)
	return mf, sfxNone
}

// stripSuffix strips suffix from name, requiring at least one character of
// base name to remain.
func stripSuffix(name, suffix string) (string, bool) {
	if len(name) <= len(suffix) {
		return "", false
	}
	if name[len(name)-len(suffix):] != suffix {
		return "", false
	}
	return name[:len(name)-len(suffix)], true
}

// extractLabel removes the first label named name from labels, returning its
// value and the remaining labels.
func extractLabel(labels []LabelPair, name string) (value string, rest []LabelPair, found bool) {
	for i, l := range labels {
		if l.Name == name {
			rest = make([]LabelPair, 0, len(labels)-1)
			rest = append(rest, labels[:i]...)
			rest = append(rest, labels[i+1:]...)
			return l.Value, rest, true
		}
	}
	return "", labels, false
}

func labelSetEqual(a, b []LabelPair) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[LabelPair]struct{}, len(a))
	for _, p := range a {
		am[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := am[p]; !ok {
			return false
		}
	}
	return true
}

func findMetricByLabels(metrics []Metric, labels []LabelPair) *Metric {
	for i := range metrics {
		if labelSetEqual(metrics[i].Labels, labels) {
			return &metrics[i]
		}
	}
	return nil
}

// setAggregateValue applies value to the Histogram/Summary aggregate field
// sfx identifies. Counter/Gauge/Untyped assign Metric.Value directly in
// parseSampleLine and never reach here.
func setAggregateValue(kind MetricKind, sfx sampleSuffix, m *Metric, value float64, lineNo int, name string) error {
	switch kind {
	case KindHistogram:
		switch sfx {
		case sfxSum:
			m.SampleSum = value
		case sfxCount:
			m.SampleCount = uint64(value)
		case sfxBucket:
			if len(m.Buckets) == 0 {
				return parseErrf(lineNo, "histogram %q: bucket value without le label", name)
			}
			m.Buckets[len(m.Buckets)-1].CumulativeCount = uint64(value)
		default:
			return parseErrf(lineNo, "histogram %q: sample missing _sum/_count/_bucket suffix", name)
		}
	case KindSummary:
		switch sfx {
		case sfxSum:
			m.SampleSum = value
		case sfxCount:
			m.SampleCount = uint64(value)
		case sfxNone:
			if len(m.Quantiles) == 0 {
				return parseErrf(lineNo, "summary %q: quantile value without quantile label", name)
			}
			m.Quantiles[len(m.Quantiles)-1].Value = value
		default:
			return parseErrf(lineNo, "summary %q: unexpected suffix", name)
		}
	}
	return nil
}

// parseSampleLine parses one non-comment, non-blank line: a metric name,
// optional label block, a value, and an optional timestamp, then folds the
// result into the family resolveFamily selects for it.
func parseSampleLine(cr *charReader, st *parseState) error {
	lineNo := cr.lineNo()

	rawName, err := readMetricName(cr, lineNo, true)
	if err != nil {
		return err
	}
	if rawName == "" {
		return parseErrf(lineNo, "expected metric name")
	}

	var rawLabels []LabelPair
	if b, ok := cr.peek(); ok && b == '{' {
		rawLabels, err = parseLabels(cr, lineNo)
		if err != nil {
			return err
		}
	}

	cr.skipBlanks()
	valTok := cr.readUntil(blankOrNewline)
	if valTok == "" {
		return parseErrf(lineNo, "missing sample value")
	}
	value, err := parseValueToken(valTok, lineNo)
	if err != nil {
		return err
	}

	cr.skipBlanks()
	var timestampMs int64
	if b, ok := cr.peek(); ok && b != '\n' {
		tsTok := cr.readUntil(blankOrNewline)
		ts, err := parseTimestampToken(tsTok, lineNo)
		if err != nil {
			return err
		}
		timestampMs = ts
	}
	cr.skipBlanks()
	if err := requireNewline(cr, lineNo); err != nil {
		return err
	}

	mf, sfx := resolveFamily(st, rawName)

	labels := rawLabels
	var bucket *Bucket
	var quant *Quantile

	switch {
	case mf.Kind == KindHistogram && sfx == sfxBucket:
		le, rest, found := extractLabel(labels, "le")
		if !found {
			return parseErrf(lineNo, "histogram %q: _bucket sample missing le label", mf.Name)
		}
		var upper float64
		if le == "+Inf" {
			upper = math.Inf(1)
		} else {
			upper, err = strconv.ParseFloat(le, 64)
			if err != nil {
				return parseErrf(lineNo, "histogram %q: invalid le value %q", mf.Name, le)
			}
		}
		labels = rest
		bucket = &Bucket{UpperBound: upper}

	case mf.Kind == KindSummary && sfx == sfxNone:
		qs, rest, found := extractLabel(labels, "quantile")
		if !found {
			return parseErrf(lineNo, "summary %q: quantile sample missing quantile label", mf.Name)
		}
		q, err := strconv.ParseFloat(qs, 64)
		if err != nil {
			return parseErrf(lineNo, "summary %q: invalid quantile value %q", mf.Name, qs)
		}
		labels = rest
		quant = &Quantile{Quantile: q}
	}

	existing := findMetricByLabels(mf.Metrics, labels)

	switch mf.Kind {
	case KindHistogram:
		if existing != nil {
			if bucket != nil {
				existing.Buckets = append(existing.Buckets, *bucket)
			}
			return setAggregateValue(mf.Kind, sfx, existing, value, lineNo, mf.Name)
		}
		m := Metric{Labels: labels, TimestampMs: timestampMs}
		if bucket != nil {
			m.Buckets = append(m.Buckets, *bucket)
		}
		idx := len(mf.Metrics)
		mf.Metrics = append(mf.Metrics, m)
		return setAggregateValue(mf.Kind, sfx, &mf.Metrics[idx], value, lineNo, mf.Name)

	case KindSummary:
		if existing != nil {
			if quant != nil {
				existing.Quantiles = append(existing.Quantiles, *quant)
			}
			return setAggregateValue(mf.Kind, sfx, existing, value, lineNo, mf.Name)
		}
		m := Metric{Labels: labels, TimestampMs: timestampMs}
		if quant != nil {
			m.Quantiles = append(m.Quantiles, *quant)
		}
		idx := len(mf.Metrics)
		mf.Metrics = append(mf.Metrics, m)
		return setAggregateValue(mf.Kind, sfx, &mf.Metrics[idx], value, lineNo, mf.Name)

	default: // KindCounter, KindGauge, KindUntyped
		if existing != nil {
			return parseErrf(lineNo, "%q: duplicate label set", mf.Name)
		}
		mf.Metrics = append(mf.Metrics, Metric{Labels: labels, TimestampMs: timestampMs, Value: value})
		return nil
	}
}
