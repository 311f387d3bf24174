package config

import "fmt"

// ConfigError is the typed error validate returns for a structurally invalid
// configuration — missing/empty urls, non-positive intervals, an unknown
// auth mode, and so on. It carries the offending field so callers (and the
// health reporter) can classify the failure with errors.As instead of
// string-matching Load's wrapped message.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func configErrf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
