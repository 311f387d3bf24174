// Package prom implements a reader for the Prometheus text exposition format
// (v0.0.4) and the in-memory metric model it parses into.
//
// TextParser is a stateful, single-pass parser: it consumes an exposition
// one line at a time, reassembling counter/gauge/histogram/summary/untyped
// families from a stream of "# HELP", "# TYPE", and sample lines, including
// the suffix-based association of _sum/_count/_bucket lines with their
// parent family. A TextParser is single-shot — create a new one per parse,
// never reuse one across scrapes.
//
// reader.go provides the small char-stream primitive (peek/read/skipBlanks/
// readUntil) the parser is built on; it performs no validation of its own.
package prom
