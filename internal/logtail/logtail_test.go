package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestFormat(t *testing.T) {
	oldLocal := time.Local
	time.Local = time.UTC
	defer func() {
		time.Local = oldLocal
	}()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain line",
			input: "not json at all",
			want:  "not json at all",
		},
		{
			name:  "broken json",
			input: `{"level":`,
			want:  `{"level":`,
		},
		{
			name:  "engine warning",
			input: `{"level":"warn","component":"engine","wiki":"2","time":"2026-01-02T15:04:05Z","message":"pending fetch failed"}`,
			want:  "2026-01-02 15:04:05 WARN [engine] pending fetch failed wiki=2",
		},
		{
			name:  "error with numeric field",
			input: `{"level":"error","error":"boom","generation":3,"message":"sync failed"}`,
			want:  "ERROR sync failed error=boom generation=3",
		},
		{
			name:  "missing level",
			input: `{"message":"hello"}`,
			want:  "INFO hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.input); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	entry, ok := Parse(`{"level":"debug","component":"prefs","key":"theme","message":"pref write failed"}`)
	if !ok {
		t.Fatal("Parse() ok = false, want true")
	}
	if entry.Level != "DEBUG" || entry.Component != "prefs" || entry.Fields["key"] != "theme" {
		t.Fatalf("Parse() = %#v", entry)
	}
	if _, ok := Parse("2026-01-02 plain"); ok {
		t.Fatal("Parse() ok = true for a plain line")
	}
}

func TestFormatLines(t *testing.T) {
	if got := FormatLines(nil); got != nil {
		t.Fatalf("FormatLines(nil) = %v, want nil", got)
	}
	got := FormatLines([]string{"a", `{"message":"b"}`})
	want := []string{"a", "INFO b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FormatLines() = %v, want %v", got, want)
	}
}
