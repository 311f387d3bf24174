package scrapeengine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/obsidianstack/promscrape/internal/config"
	"github.com/obsidianstack/promscrape/pkg/prom"
)

// acceptHeader is the exact Accept value specified for every scrape
// request: protobuf-delimited preferred, text/plain 0.0.4 as fallback.
const acceptHeader = "application/vnd.google.protobuf;proto=io.prometheus.client.MetricFamily;encoding=delimited;q=0.7,text/plain;version=0.0.4;q=0.3"

const userAgent = "promscrape/1.0"

const protoDelimMediaType = "application/vnd.google.protobuf"

// target performs HTTP GETs against one configured URL and turns the
// response body into prom.MetricFamily values, dispatching on content type.
type target struct {
	url          string
	client       *http.Client
	authToken    string
	maxBodyBytes int64
}

func newTarget(url string, cfg *config.Config) *target {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.TLS.InsecureSkipVerify}, //nolint:gosec
	}
	return &target{
		url: url,
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.RequestTimeoutMsec) * time.Millisecond,
		},
		authToken:    authToken(cfg),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

func authToken(cfg *config.Config) string {
	if cfg.Auth.Mode != "bearer" {
		return ""
	}
	return cfg.Auth.Token()
}

// fetchAndParse performs one GET against t.url and returns the decoded
// families. A non-nil transportErr means the HTTP round trip or body read
// failed; a non-nil parseErr means the body was read but malformed.
func (t *target) fetchAndParse(ctx context.Context) (families []*prom.MetricFamily, transportErr, parseErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, transportErrf(t.url, "build request: %w", err), nil
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportErrf(t.url, "http get: %w", err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, transportErrf(t.url, "unexpected status %s", resp.Status), nil
	}

	body := boundedReader(resp.Body, t.maxBodyBytes)

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain" // absent/malformed Content-Type defaults to the text branch
	}

	if mediaType == protoDelimMediaType {
		fams, err := decodeProtoDelimited(body)
		if err != nil {
			return nil, transportErrf(t.url, "decode delimited protobuf: %w", err), nil
		}
		return fams, nil, nil
	}

	p := &prom.TextParser{}
	fams, err := p.Parse(body)
	if err != nil {
		var re *prom.ReadError
		if errors.As(err, &re) {
			return nil, transportErrf(t.url, "read body: %w", err), nil
		}
		return nil, nil, err
	}
	return fams, nil, nil
}

// boundedReader caps a response body at maxBytes; 0 means unlimited. A body
// that would exceed the limit surfaces as a transport error for the cycle,
// not a parse error, matching the real Prometheus scraper's body-size guard.
func boundedReader(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes <= 0 {
		return r
	}
	return &limitedReader{r: io.LimitReader(r, maxBytes+1), limit: maxBytes}
}

type limitedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return n, fmt.Errorf("body exceeds max_body_bytes limit of %d", l.limit)
	}
	return n, err
}

