// Package logtail reads the tail of the reviewdeck log file and renders its
// zerolog JSON lines for display.
//
// Read keeps only the last N lines in a ring buffer, so memory stays
// proportional to N regardless of file size. A missing file is not an
// error; the activity view simply shows nothing.
//
// Parse and Format turn lines such as
//
//	{"level":"warn","component":"engine","wiki":"2","time":"2026-01-02T15:04:05Z","message":"pending fetch failed"}
//
// into
//
//	2026-01-02 15:04:05 WARN [engine] pending fetch failed wiki=2
//
// Lines that are not JSON objects pass through unchanged.
package logtail
