package scrapeengine

import "fmt"

// TransportError is the typed error fetchAndParse returns for anything that
// fails before or during the HTTP round trip — building the request, the
// GET itself, a non-200 status, an oversized/truncated body, or a malformed
// delimited-protobuf payload. It carries the target URL so callers (and the
// health reporter) can classify the failure with errors.As instead of
// string-matching the wrapped message.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scrape %q: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErrf(url string, format string, args ...any) *TransportError {
	return &TransportError{URL: url, Err: fmt.Errorf(format, args...)}
}
