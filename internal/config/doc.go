// Package config loads and watches the scrape-input configuration file
// (config.yaml).
//
// Top-level type:
//   - Config — urls [], scrape_interval_msec (default 5000),
//     request_timeout_msec (default 10000), max_body_bytes, tls, auth
//   - AuthConfig — mode (none|bearer), token_env; Token() resolves the
//     bearer token from the environment
//   - TLSConfig — insecure_skip_verify
//
// Load(path) reads the YAML file, applies defaults, then validates required
// fields and enums.
//
// Watch(ctx, path, initial, onChange) uses fsnotify to detect file changes
// and calls onChange with the newly parsed Config. It diffs each reload's
// Urls and ScrapeIntervalMsec against initial (and then each prior reload)
// and logs exactly what changed. It reloads on write and create events and
// re-adds the watch on path after each successful reload; rename and remove
// events are ignored and do not by themselves re-add the watch. Rebuilding already-running scrape loops from a reload is
// out of scope; onChange exists for callers that want to log or validate a
// new config ahead of a process restart.
package config
