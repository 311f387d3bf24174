package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. initial is the config already active
// (the result of the Load call that started the process); Watch diffs each
// reload against the last config it saw so the log line names exactly what
// moved, since a scrape input's URL set and interval are the two fields a
// running engine actually cares about changing. It runs until ctx is
// cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, initial *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	active := initial

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}

			logURLDiff(active, cfg)
			if cfg.ScrapeIntervalMsec != active.ScrapeIntervalMsec {
				slog.Info("config: scrape interval changed",
					"from_msec", active.ScrapeIntervalMsec, "to_msec", cfg.ScrapeIntervalMsec)
			}

			active = cfg
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// logURLDiff logs the URLs added and removed between two reloads. A running
// scrapeengine.Engine does not rebuild its per-URL loops from a reload (see
// doc.go), so this is the operator's only signal that a URL change was seen
// but not yet applied.
func logURLDiff(from, to *Config) {
	prev := make(map[string]bool, len(from.Urls))
	for _, u := range from.Urls {
		prev[u] = true
	}
	next := make(map[string]bool, len(to.Urls))
	for _, u := range to.Urls {
		next[u] = true
	}

	var added, removed []string
	for _, u := range to.Urls {
		if !prev[u] {
			added = append(added, u)
		}
	}
	for _, u := range from.Urls {
		if !next[u] {
			removed = append(removed, u)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		slog.Info("config: reloaded, no URL changes")
		return
	}
	slog.Info("config: reloaded with URL changes", "added", added, "removed", removed)
}
