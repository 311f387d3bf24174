// Package healthreport is the health-reporter collaborator: scrape and
// config failures are reported here rather than propagated to observers as
// events.
package healthreport

import (
	"log/slog"
	"sync"
)

// ErrorKind classifies a reported error for logging level and, in a fuller
// deployment, alert routing.
type ErrorKind int

const (
	ErrorKindConfig ErrorKind = iota
	ErrorKindTransport
	ErrorKindParse
	ErrorKindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindConfig:
		return "config"
	case ErrorKindTransport:
		return "transport"
	case ErrorKindParse:
		return "parse"
	case ErrorKindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Reporter is notified of every config/transport/parse/internal error so
// tests can assert on reported failures without scraping log output.
type Reporter interface {
	ReportError(source string, kind ErrorKind, err error)
}

// SlogReporter is the default Reporter: it logs through the process-wide
// structured logger. Config errors are effectively fatal to the affected
// source, so they log at Error; transport and parse errors abandon only the
// current cycle, so they log at Warn.
type SlogReporter struct{}

func (SlogReporter) ReportError(source string, kind ErrorKind, err error) {
	switch kind {
	case ErrorKindConfig:
		slog.Error("healthreport: config error", "source", source, "kind", kind.String(), "err", err)
	default:
		slog.Warn("healthreport: scrape cycle abandoned", "source", source, "kind", kind.String(), "err", err)
	}
}

// Recording is a Reporter that stores every call for test assertions. Safe
// for concurrent use since scrape loops run one per URL.
type Recording struct {
	Mu     sync.Mutex
	Errors []RecordedError
}

// RecordedError is one call captured by Recording.
type RecordedError struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (r *Recording) ReportError(source string, kind ErrorKind, err error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Errors = append(r.Errors, RecordedError{Source: source, Kind: kind, Err: err})
}
