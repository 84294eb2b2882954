package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// KV is the raw key/value backend behind a Store.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

const (
	defaultFilePath   = "~/.config/reviewdeck/prefs.toml"
	defaultSQLitePath = "~/.config/reviewdeck/prefs.db"
)

// DefaultPath returns the default preferences path for a backend.
func DefaultPath(backend string) string {
	if backend == BackendSQLite {
		return defaultSQLitePath
	}
	return defaultFilePath
}

// FileKV keeps preferences as flat string keys in a TOML file.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV returns a FileKV rooted at path (default when empty).
func NewFileKV(path string) (*FileKV, error) {
	resolved, err := resolvePath(path, defaultFilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return &FileKV{path: resolved}, nil
}

// Path returns the resolved file path.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// Rewrite a corrupt file with whatever lines still parse.
		values = f.salvage()
	}
	values[key] = value
	return f.write(values)
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	values := map[string]string{}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	return values, nil
}

func (f *FileKV) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod prefs: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// salvage reads an unparseable prefs file line by line and keeps every
// top-level string key that still decodes on its own.
func (f *FileKV) salvage() map[string]string {
	values := map[string]string{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return values
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		var entry map[string]string
		if err := toml.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		for k, v := range entry {
			values[k] = v
		}
	}
	return values
}

func resolvePath(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(fallback)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
