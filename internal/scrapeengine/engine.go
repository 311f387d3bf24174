// Package scrapeengine implements C6: one independent scheduling loop per
// configured URL, performing HTTP GET, content negotiation, parsing, delta
// computation, and event publication.
package scrapeengine

import (
	"context"
	"sync"
	"time"

	"github.com/obsidianstack/promscrape/internal/config"
	"github.com/obsidianstack/promscrape/internal/deltacache"
	"github.com/obsidianstack/promscrape/internal/eventbuilder"
	"github.com/obsidianstack/promscrape/internal/healthreport"
	"github.com/obsidianstack/promscrape/pkg/event"
)

// shutdownGrace bounds how long Shutdown waits for in-flight scrape
// goroutines to finish publishing before the subject is closed underneath
// them.
const shutdownGrace = 5 * time.Second

// Engine owns one scheduling loop per configured URL, a shared HTTP client
// per target, a shared delta cache, and the subject every cycle publishes
// to.
type Engine struct {
	subject  *event.Subject
	cache    *deltacache.Cache
	reporter healthreport.Reporter
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New builds the subject and delta cache and launches one independent
// periodic task per URL. It does not validate cfg; config.Load does that
// before a Config reaches here. The returned Engine is running; call
// Shutdown to stop it.
func New(ctx context.Context, cfg *config.Config, reporter healthreport.Reporter) *Engine {
	ctx, cancel := context.WithCancel(ctx)

	e := &Engine{
		subject:  event.NewSubject(),
		cache:    deltacache.New(),
		reporter: reporter,
		interval: time.Duration(cfg.ScrapeIntervalMsec) * time.Millisecond,
		cancel:   cancel,
	}

	for _, url := range cfg.Urls {
		t := newTarget(url, cfg)
		e.wg.Add(1)
		go e.runLoop(ctx, t)
	}

	return e
}

// Subscribe registers an observer on the engine's subject.
func (e *Engine) Subscribe(o event.Observer) event.Cancel {
	return e.subject.Subscribe(o)
}

// runLoop is the per-URL scheduling loop: scrape, then wait out the
// remainder of the interval (or cancellation), never overlapping cycles on
// the same URL.
func (e *Engine) runLoop(ctx context.Context, t *target) {
	defer e.wg.Done()

	for {
		nextStart := time.Now().Add(e.interval)

		e.scrapeOnce(ctx, t)

		wait := time.Until(nextStart)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// scrapeOnce performs one GET -> parse -> build -> publish cycle for t. A
// transport or parse failure abandons the cycle: no partial events are
// published, and the failure is reported to the health reporter.
func (e *Engine) scrapeOnce(ctx context.Context, t *target) {
	requestTime := time.Now()

	families, transportErr, parseErr := t.fetchAndParse(ctx)
	if transportErr != nil {
		e.reporter.ReportError(t.url, healthreport.ErrorKindTransport, transportErr)
		return
	}
	if parseErr != nil {
		e.reporter.ReportError(t.url, healthreport.ErrorKindParse, parseErr)
		return
	}

	for _, mf := range families {
		for _, ev := range eventbuilder.Build(e.cache, t.url, mf, requestTime) {
			e.subject.Publish(ev)
		}
	}
}

// Shutdown signals cancellation to every per-URL loop, waits up to
// shutdownGrace for in-flight cycles to finish publishing, then closes the
// subject and releases resources. Shutdown is idempotent.
func (e *Engine) Shutdown() {
	e.closeOnce.Do(func() {
		e.cancel()

		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(shutdownGrace):
		}

		e.subject.Close()
	})
}
