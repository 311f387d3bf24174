package prom

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) []*MetricFamily {
	t.Helper()
	p := &TextParser{}
	fams, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	return fams
}

func labelsOf(m Metric) map[string]string {
	out := make(map[string]string, len(m.Labels))
	for _, l := range m.Labels {
		out[l.Name] = l.Value
	}
	return out
}

// Scenario S1 — counter with labels and timestamp.
func TestScenarioS1CounterWithLabelsAndTimestamp(t *testing.T) {
	input := `# HELP http_requests_total The total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="post",code="200"} 1027 1395066363000
http_requests_total{method="post",code="400"} 3 1395066363000
`
	fams := mustParse(t, input)
	if len(fams) != 1 {
		t.Fatalf("want 1 family, got %d", len(fams))
	}
	mf := fams[0]
	if mf.Name != "http_requests_total" || mf.Kind != KindCounter {
		t.Fatalf("got name=%q kind=%v", mf.Name, mf.Kind)
	}
	if !strings.HasPrefix(mf.Help, "The total number of HTTP requests.") {
		t.Fatalf("help = %q", mf.Help)
	}
	if len(mf.Metrics) != 2 {
		t.Fatalf("want 2 metrics, got %d", len(mf.Metrics))
	}
	for _, m := range mf.Metrics {
		if m.TimestampMs != 1395066363000 {
			t.Fatalf("timestamp = %d", m.TimestampMs)
		}
		lbl := labelsOf(m)
		switch lbl["code"] {
		case "200":
			if m.Value != 1027 {
				t.Fatalf("value for code=200: %v", m.Value)
			}
		case "400":
			if m.Value != 3 {
				t.Fatalf("value for code=400: %v", m.Value)
			}
		default:
			t.Fatalf("unexpected code label %q", lbl["code"])
		}
	}
}

// Scenario S2 — escaped label values on an untyped family.
func TestScenarioS2EscapedLabelValues(t *testing.T) {
	input := "msdos_file_access_time_seconds{path=\"C:\\\\DIR\\\\FILE.TXT\",error=\"Cannot find file:\\n\\\"FILE.TXT\\\"\"} 1.458255915e9\n"
	fams := mustParse(t, input)
	if len(fams) != 1 {
		t.Fatalf("want 1 family, got %d", len(fams))
	}
	mf := fams[0]
	if mf.Kind != KindUntyped {
		t.Fatalf("kind = %v, want Untyped", mf.Kind)
	}
	if len(mf.Metrics) != 1 {
		t.Fatalf("want 1 metric, got %d", len(mf.Metrics))
	}
	lbl := labelsOf(mf.Metrics[0])
	if lbl["path"] != `C:\DIR\FILE.TXT` {
		t.Fatalf("path = %q", lbl["path"])
	}
	if lbl["error"] != "Cannot find file:\n\"FILE.TXT\"" {
		t.Fatalf("error = %q", lbl["error"])
	}
	if mf.Metrics[0].Value != 1.458255915e9 {
		t.Fatalf("value = %v", mf.Metrics[0].Value)
	}
}

// Scenario S3 — weird timestamp and infinity.
func TestScenarioS3InfinityAndNegativeTimestamp(t *testing.T) {
	input := "something_weird{problem=\"division by zero\"} +Inf -3982045\n"
	fams := mustParse(t, input)
	if len(fams) != 1 {
		t.Fatalf("want 1 family, got %d", len(fams))
	}
	m := fams[0].Metrics[0]
	if !math.IsInf(m.Value, 1) {
		t.Fatalf("value = %v, want +Inf", m.Value)
	}
	if m.TimestampMs != -3982045 {
		t.Fatalf("timestamp = %d", m.TimestampMs)
	}
}

// Scenario S4 — histogram assembly from separate _bucket/_sum/_count lines.
func TestScenarioS4HistogramAssembly(t *testing.T) {
	input := `# TYPE http_request_duration_seconds histogram
http_request_duration_seconds_bucket{le="0.05"} 24054
http_request_duration_seconds_bucket{le="0.1"} 33444
http_request_duration_seconds_bucket{le="0.2"} 100392
http_request_duration_seconds_bucket{le="0.5"} 129389
http_request_duration_seconds_bucket{le="1"} 133988
http_request_duration_seconds_bucket{le="+Inf"} 144320
http_request_duration_seconds_sum 53423.0
http_request_duration_seconds_count 144320
`
	fams := mustParse(t, input)
	if len(fams) != 1 {
		t.Fatalf("want 1 family, got %d", len(fams))
	}
	mf := fams[0]
	if mf.Kind != KindHistogram {
		t.Fatalf("kind = %v", mf.Kind)
	}
	if len(mf.Metrics) != 1 {
		t.Fatalf("want 1 metric (one label set), got %d", len(mf.Metrics))
	}
	m := mf.Metrics[0]
	if len(m.Buckets) != 6 {
		t.Fatalf("want 6 buckets, got %d", len(m.Buckets))
	}
	wantBounds := []float64{0.05, 0.1, 0.2, 0.5, 1, math.Inf(1)}
	for i, b := range m.Buckets {
		if b.UpperBound != wantBounds[i] {
			t.Fatalf("bucket %d upper bound = %v, want %v (order must be input order)", i, b.UpperBound, wantBounds[i])
		}
	}
	if m.Buckets[5].CumulativeCount != 144320 {
		t.Fatalf("+Inf bucket count = %d", m.Buckets[5].CumulativeCount)
	}
	if m.SampleSum != 53423.0 {
		t.Fatalf("sample_sum = %v", m.SampleSum)
	}
	if m.SampleCount != 144320 {
		t.Fatalf("sample_count = %d", m.SampleCount)
	}
	for _, l := range m.Labels {
		if l.Name == "le" {
			t.Fatalf("le label must not survive into Metric.Labels")
		}
	}
}

// Scenario S5 — summary assembly with quantile label.
func TestScenarioS5SummaryAssembly(t *testing.T) {
	input := `# TYPE rpc_duration_seconds summary
rpc_duration_seconds{quantile="0.01"} 3102
rpc_duration_seconds{quantile="0.05"} 3272
rpc_duration_seconds{quantile="0.5"} 4773
rpc_duration_seconds{quantile="0.9"} 9001
rpc_duration_seconds{quantile="0.99"} 76656
rpc_duration_seconds_sum 1.7560473e+07
rpc_duration_seconds_count 2693
`
	fams := mustParse(t, input)
	if len(fams) != 1 {
		t.Fatalf("want 1 family, got %d", len(fams))
	}
	mf := fams[0]
	if mf.Kind != KindSummary {
		t.Fatalf("kind = %v", mf.Kind)
	}
	if len(mf.Metrics) != 1 {
		t.Fatalf("want 1 metric, got %d", len(mf.Metrics))
	}
	m := mf.Metrics[0]
	if len(m.Quantiles) != 5 {
		t.Fatalf("want 5 quantiles, got %d", len(m.Quantiles))
	}
	wantQ := []float64{0.01, 0.05, 0.5, 0.9, 0.99}
	for i, q := range m.Quantiles {
		if q.Quantile != wantQ[i] {
			t.Fatalf("quantile %d = %v, want %v (order must be input order)", i, q.Quantile, wantQ[i])
		}
	}
	if m.Quantiles[2].Value != 4773 {
		t.Fatalf("q0.5 value = %v", m.Quantiles[2].Value)
	}
	if m.SampleSum != 1.7560473e+07 || m.SampleCount != 2693 {
		t.Fatalf("sum=%v count=%d", m.SampleSum, m.SampleCount)
	}
	for _, l := range m.Labels {
		if l.Name == "quantile" {
			t.Fatalf("quantile label must not survive into Metric.Labels")
		}
	}
}

// Scenario S7 — fatal parse errors: sample line without trailing newline,
// undefined escape, duplicate counter label set.
func TestScenarioS7FatalParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing trailing newline", "foo 1"},
		{"undefined escape in label value", "foo{a=\"\\q\"} 1\n"},
		{"duplicate counter label set", "# TYPE foo counter\nfoo{a=\"1\"} 1\nfoo{a=\"1\"} 2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &TextParser{}
			fams, err := p.Parse(strings.NewReader(tc.input))
			if err == nil {
				t.Fatalf("expected fatal error, got families: %+v", fams)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
		})
	}
}

func TestNanOnlyAcceptsSourceSpelling(t *testing.T) {
	fams := mustParse(t, "foo Nan\n")
	if !math.IsNaN(fams[0].Metrics[0].Value) {
		t.Fatalf("expected NaN")
	}

	for _, bad := range []string{"NaN", "nan", "NAN"} {
		p := &TextParser{}
		if _, err := p.Parse(strings.NewReader("foo " + bad + "\n")); err == nil {
			t.Fatalf("spelling %q should be rejected", bad)
		}
	}
}

func TestSuffixLengthFloor(t *testing.T) {
	// "_count" alone has zero characters before the suffix: it must become
	// its own Untyped family named "_count", not a reference into a family
	// named "".
	fams := mustParse(t, "_count 5\n")
	if len(fams) != 1 || fams[0].Name != "_count" || fams[0].Kind != KindUntyped {
		t.Fatalf("got %+v", fams)
	}
}

func TestTypeMustPrecedeSamples(t *testing.T) {
	input := "foo 1\n# TYPE foo counter\n"
	p := &TextParser{}
	if _, err := p.Parse(strings.NewReader(input)); err == nil {
		t.Fatalf("expected fatal error when TYPE follows existing samples")
	}
}

func TestBlankTrailingLineWithoutNewlineTolerated(t *testing.T) {
	fams := mustParse(t, "foo 1\n  ")
	if len(fams) != 1 {
		t.Fatalf("got %+v", fams)
	}
}

func TestInvalidMetricNameCharacterIsFatal(t *testing.T) {
	p := &TextParser{}
	if _, err := p.Parse(strings.NewReader("fo-o 1\n")); err == nil {
		t.Fatalf("expected fatal error for invalid metric name character")
	}
}

func TestTruncatedCommentWithoutNewlineIsFatal(t *testing.T) {
	// Unlike a wholly blank trailing line, a truncated "# ..." comment is a
	// non-blank line and must end with '\n' like any other.
	p := &TextParser{}
	fams, err := p.Parse(strings.NewReader("foo 1\n# a generic comment with no trailing newline"))
	if err == nil {
		t.Fatalf("expected fatal error, got families: %+v", fams)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}
