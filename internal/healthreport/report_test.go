package healthreport

import (
	"errors"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrorKindConfig:    "config",
		ErrorKindTransport: "transport",
		ErrorKindParse:     "parse",
		ErrorKindInternal:  "internal",
		ErrorKind(99):      "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestRecordingCapturesCalls(t *testing.T) {
	r := &Recording{}
	errA := errors.New("transport failed")
	errB := errors.New("parse failed")

	r.ReportError("http://a", ErrorKindTransport, errA)
	r.ReportError("http://b", ErrorKindParse, errB)

	if len(r.Errors) != 2 {
		t.Fatalf("Errors: got %d entries, want 2", len(r.Errors))
	}
	if r.Errors[0].Source != "http://a" || r.Errors[0].Kind != ErrorKindTransport {
		t.Errorf("unexpected first entry: %+v", r.Errors[0])
	}
	if r.Errors[1].Source != "http://b" || r.Errors[1].Kind != ErrorKindParse {
		t.Errorf("unexpected second entry: %+v", r.Errors[1])
	}
}

func TestSlogReporterDoesNotPanic(t *testing.T) {
	var rep Reporter = SlogReporter{}
	rep.ReportError("http://a", ErrorKindConfig, errors.New("bad config"))
	rep.ReportError("http://a", ErrorKindTransport, errors.New("dial failed"))
}
