package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "info", Format: "console"}, &buf)

		log.Info("hello world")

		output := buf.String()
		if !strings.Contains(output, "hello world") {
			t.Errorf("expected log output to contain 'hello world', but got '%s'", output)
		}
		if strings.Contains(output, "{") {
			t.Errorf("expected console format, but got json-like output: %s", output)
		}
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "error", Format: "json"}, &buf)

		log.Error(errors.New("test error"), "an error occurred")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to unmarshal log output as json: %v\noutput: %s", err, buf.String())
		}
		if entry["level"] != "error" {
			t.Errorf("level = %v, want error", entry["level"])
		}
		if entry["message"] != "an error occurred" {
			t.Errorf("message = %v, want 'an error occurred'", entry["message"])
		}
		if entry["error"] != "test error" {
			t.Errorf("error = %v, want 'test error'", entry["error"])
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "warn", Format: "console"}, &buf)

		log.Info("this should be ignored")
		log.Warn("this should appear")

		output := buf.String()
		if strings.Contains(output, "this should be ignored") {
			t.Error("info level log should have been ignored")
		}
		if !strings.Contains(output, "this should appear") {
			t.Error("warn level log should have appeared")
		}
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "loud", Format: "json"}, &buf)
		log.Debug("hidden")
		log.Info("visible")

		output := buf.String()
		if strings.Contains(output, "hidden") {
			t.Errorf("debug output leaked at default level: %s", output)
		}
		if !strings.Contains(output, "visible") {
			t.Errorf("info output missing: %s", output)
		}
	})

	t.Run("with adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "debug", Format: "json"}, &buf).With(map[string]any{"wiki": "7"})
		log.Debug("sync")

		if !strings.Contains(buf.String(), `"wiki":"7"`) {
			t.Fatalf("output = %s, want wiki field", buf.String())
		}
	})
}

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reviewdeck.log")
	log, closer, err := Open(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	log.Info("first")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
