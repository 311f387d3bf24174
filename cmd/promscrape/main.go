package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/obsidianstack/promscrape/internal/config"
	"github.com/obsidianstack/promscrape/internal/healthreport"
	"github.com/obsidianstack/promscrape/internal/scrapeengine"
	"github.com/obsidianstack/promscrape/pkg/event"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("promscrape starting", "config", *configPath)

	reporter := healthreport.SlogReporter{}

	cfg, err := config.Load(*configPath)
	if err != nil {
		reporter.ReportError(*configPath, healthreport.ErrorKindConfig, err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"urls", len(cfg.Urls),
		"scrape_interval_msec", cfg.ScrapeIntervalMsec,
		"request_timeout_msec", cfg.RequestTimeoutMsec,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := scrapeengine.New(ctx, cfg, reporter)

	// Debug-log every published event; real consumers subscribe the same way.
	unsubscribe := engine.Subscribe(event.ObserverFunc(func(ev event.Event) {
		slog.Debug("event published",
			"provider", ev.ProviderName,
			"kind", ev.Metadata.Kind,
			"metric", ev.Metadata.MetricName,
		)
	}))
	defer unsubscribe()

	// Watch config file for hot-reload (logs only; rebuilding running scrape
	// loops from a reload is out of scope — see internal/config/doc.go).
	go func() {
		if err := config.Watch(ctx, *configPath, cfg, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "urls", len(updated.Urls))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("promscrape shutting down")
	engine.Shutdown()
}
