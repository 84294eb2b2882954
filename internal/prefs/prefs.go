// Package prefs persists reviewdeck's UI preferences.
//
// Preferences live in ~/.config/reviewdeck/prefs.toml or, when configured, a
// SQLite database. Reads and writes never fail from the caller's point of
// view: a backend error is logged at debug level and the value is treated
// as absent or the write is dropped.
package prefs

import (
	"fmt"
	"io"
	"strings"

	"github.com/five82/reviewdeck/internal/logger"
	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/reviews"
)

// Preference keys.
const (
	KeyConfigurationOpen = "configuration_open"
	KeySelectedWiki      = "selected_wiki"
	KeySortOrder         = "sort_order"
	KeyTheme             = "theme"
)

// Backend names accepted by Open.
const (
	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
)

const defaultTheme = "Nightfox"

// Store reads and writes typed preferences over a KV backend.
type Store struct {
	kv  KV
	log logger.Logger
}

// New wraps kv. A nil log discards backend errors.
func New(kv KV, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{kv: kv, log: log.With(map[string]any{"component": "prefs"})}
}

// Open builds a Store for the named backend. The returned closer releases
// the backend. An unknown backend is an error.
func Open(backend, path string, log logger.Logger) (*Store, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendTOML:
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, nil, err
		}
		return New(kv, log), nopCloser{}, nil
	case BackendSQLite:
		kv, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return New(kv, log), kv, nil
	default:
		return nil, nil, fmt.Errorf("unknown prefs backend %q", backend)
	}
}

// Load returns the raw value for key and whether it was present.
func (s *Store) Load(key string) (string, bool) {
	if s == nil || s.kv == nil {
		return "", false
	}
	value, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.With(map[string]any{"key": key, "error": err.Error()}).Debug("pref read failed")
		return "", false
	}
	return value, ok
}

// Save writes value under key. A nil value deletes the key.
func (s *Store) Save(key string, value *string) {
	if s == nil || s.kv == nil {
		return
	}
	var err error
	if value == nil {
		err = s.kv.Delete(key)
	} else {
		err = s.kv.Set(key, *value)
	}
	if err != nil {
		s.log.With(map[string]any{"key": key, "error": err.Error()}).Debug("pref write failed")
	}
}

// LoadFlag returns true only when the stored value is the literal "true".
func (s *Store) LoadFlag(key string) bool {
	value, ok := s.Load(key)
	return ok && value == "true"
}

// SaveFlag stores b as "true" or "false".
func (s *Store) SaveFlag(key string, b bool) {
	value := "false"
	if b {
		value = "true"
	}
	s.Save(key, &value)
}

// LoadSelectedWiki resolves the stored selection against wikis. It falls
// back to the first wiki when nothing is stored or nothing matches, and
// returns the empty id when there are no wikis.
func (s *Store) LoadSelectedWiki(wikis []reviews.Wiki) reviews.WikiID {
	if len(wikis) == 0 {
		return ""
	}
	stored, ok := s.Load(KeySelectedWiki)
	if ok && stored != "" {
		want := reviews.WikiID(stored)
		for _, w := range wikis {
			if w.ID.Matches(want) {
				return w.ID
			}
		}
	}
	return wikis[0].ID
}

// SaveSelectedWiki stores id, deleting the key for the empty id.
func (s *Store) SaveSelectedWiki(id reviews.WikiID) {
	if id.IsZero() {
		s.Save(KeySelectedWiki, nil)
		return
	}
	value := id.String()
	s.Save(KeySelectedWiki, &value)
}

// LoadSortOrder returns the stored order, Newest when absent or unknown.
func (s *Store) LoadSortOrder() order.Order {
	value, _ := s.Load(KeySortOrder)
	return order.Parse(value)
}

// SaveSortOrder stores o.
func (s *Store) SaveSortOrder(o order.Order) {
	value := string(order.Parse(string(o)))
	s.Save(KeySortOrder, &value)
}

// LoadTheme returns the stored theme name or the default theme.
func (s *Store) LoadTheme() string {
	value, ok := s.Load(KeyTheme)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultTheme
	}
	return strings.TrimSpace(value)
}

// SaveTheme stores the theme name.
func (s *Store) SaveTheme(name string) {
	s.Save(KeyTheme, &name)
}

// Values returns every known preference as stored, for display.
func (s *Store) Values() map[string]string {
	out := map[string]string{}
	for _, key := range []string{KeyConfigurationOpen, KeySelectedWiki, KeySortOrder, KeyTheme} {
		if v, ok := s.Load(key); ok {
			out[key] = v
		}
	}
	return out
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
