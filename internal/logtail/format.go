package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one parsed JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	Fields    map[string]string
	Raw       string
}

var reserved = map[string]bool{
	"time":      true,
	"level":     true,
	"component": true,
	"message":   true,
	"error":     true,
}

// Parse decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw set and ok false.
func Parse(line string) (Entry, bool) {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return entry, false
	}

	entry.Level = strings.ToUpper(stringField(fields, "level"))
	entry.Component = stringField(fields, "component")
	entry.Message = stringField(fields, "message")
	entry.Error = stringField(fields, "error")
	if ts := stringField(fields, "time"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	for key, value := range fields {
		if reserved[key] {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]string)
		}
		entry.Fields[key] = fmt.Sprint(value)
	}
	return entry, true
}

// Format renders a JSON log line as
//
//	2026-01-02 15:04:05 WARN [engine] message key=value
//
// Other lines are returned unchanged.
func Format(line string) string {
	entry, ok := Parse(line)
	if !ok {
		return line
	}
	return entry.String()
}

// FormatLines applies Format to each line.
func FormatLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Format(line)
	}
	return out
}

// String renders the entry in local time.
func (e Entry) String() string {
	level := e.Level
	if level == "" {
		level = "INFO"
	}
	parts := make([]string, 0, 4)
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	parts = append(parts, level)
	if e.Component != "" {
		parts = append(parts, "["+e.Component+"]")
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Error != "" {
		parts = append(parts, "error="+e.Error)
	}

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+e.Fields[key])
	}
	return strings.Join(parts, " ")
}

func stringField(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(value)
}
