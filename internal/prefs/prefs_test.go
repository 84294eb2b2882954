package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/reviews"
)

type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("denied") }
func (failingKV) Set(string, string) error         { return errors.New("quota exceeded") }
func (failingKV) Delete(string) error              { return errors.New("denied") }

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.toml")
	kv, err := NewFileKV(path)
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	return New(kv, nil), path
}

var wikis = []reviews.Wiki{{ID: "1", Code: "de"}, {ID: "2", Code: "en"}, {ID: "3", Code: "pl"}}

func TestFileKV_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	kv, err := NewFileKV("")
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	want := filepath.Join(home, ".config", "reviewdeck", "prefs.toml")
	if kv.Path() != want {
		t.Fatalf("Path() = %q, want %q", kv.Path(), want)
	}
}

func TestFileKV_MissingFileIsEmpty(t *testing.T) {
	s, _ := newFileStore(t)
	if _, ok := s.Load(KeyTheme); ok {
		t.Fatal("Load on missing file reported a value")
	}
	if got := s.LoadTheme(); got != defaultTheme {
		t.Fatalf("LoadTheme() = %q, want %q", got, defaultTheme)
	}
}

func TestFileKV_SaveCreatesDirsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "prefs.toml")
	kv, err := NewFileKV(path)
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	s := New(kv, nil)

	s.SaveTheme("Slate")
	s.SaveSortOrder(order.Random)
	s.SaveFlag(KeyConfigurationOpen, true)

	reopened, err := NewFileKV(path)
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	s2 := New(reopened, nil)
	if got := s2.LoadTheme(); got != "Slate" {
		t.Fatalf("LoadTheme() = %q, want Slate", got)
	}
	if got := s2.LoadSortOrder(); got != order.Random {
		t.Fatalf("LoadSortOrder() = %q, want random", got)
	}
	if !s2.LoadFlag(KeyConfigurationOpen) {
		t.Fatal("LoadFlag() = false, want true")
	}
}

func TestFileKV_CorruptFileDegrades(t *testing.T) {
	s, path := newFileStore(t)
	if err := os.WriteFile(path, []byte("theme = [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := s.LoadTheme(); got != defaultTheme {
		t.Fatalf("LoadTheme() = %q, want default on corrupt file", got)
	}

	s.SaveTheme("Kanagawa")
	if got := s.LoadTheme(); got != "Kanagawa" {
		t.Fatalf("LoadTheme() = %q, want Kanagawa after rewrite", got)
	}
}

func TestFileKV_CorruptFileKeepsReadableKeys(t *testing.T) {
	s, path := newFileStore(t)
	corrupt := "selected_wiki = \"2\"\ntheme = [unterminated\nsort_order = \"oldest\"\n"
	if err := os.WriteFile(path, []byte(corrupt), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s.SaveFlag(KeyConfigurationOpen, true)

	if got := s.LoadSelectedWiki(wikis); got != "2" {
		t.Fatalf("LoadSelectedWiki() = %q, want 2 kept from the corrupt file", got)
	}
	if got := s.LoadSortOrder(); got != order.Oldest {
		t.Fatalf("LoadSortOrder() = %q, want oldest kept from the corrupt file", got)
	}
	if !s.LoadFlag(KeyConfigurationOpen) {
		t.Fatal("LoadFlag() = false, want true")
	}
	if got := s.LoadTheme(); got != defaultTheme {
		t.Fatalf("LoadTheme() = %q, want default for the unreadable line", got)
	}
}

func TestFileKV_WriteLeavesNoTempFiles(t *testing.T) {
	s, path := newFileStore(t)
	s.SaveTheme("Slate")
	s.SaveSortOrder(order.Random)

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v, want only %s", names, filepath.Base(path))
	}
}

func TestLoadFlag_OnlyLiteralTrue(t *testing.T) {
	s, _ := newFileStore(t)
	for value, want := range map[string]bool{"true": true, "TRUE": false, "1": false, "false": false, "": false} {
		v := value
		s.Save(KeyConfigurationOpen, &v)
		if got := s.LoadFlag(KeyConfigurationOpen); got != want {
			t.Fatalf("LoadFlag(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestSave_NilDeletes(t *testing.T) {
	s, _ := newFileStore(t)
	s.SaveSelectedWiki("2")
	s.Save(KeySelectedWiki, nil)
	if _, ok := s.Load(KeySelectedWiki); ok {
		t.Fatal("key still present after Save(nil)")
	}
	s.SaveSelectedWiki("")
	if _, ok := s.Load(KeySelectedWiki); ok {
		t.Fatal("empty id should delete the key")
	}
}

func TestLoadSelectedWiki(t *testing.T) {
	cases := []struct {
		name   string
		stored *string
		wikis  []reviews.Wiki
		want   reviews.WikiID
	}{
		{"no wikis", ptr("2"), nil, ""},
		{"nothing stored", nil, wikis, "1"},
		{"exact match", ptr("3"), wikis, "3"},
		{"numeric match", ptr("02"), wikis, "2"},
		{"no match", ptr("99"), wikis, "1"},
		{"empty stored", ptr(""), wikis, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newFileStore(t)
			s.Save(KeySelectedWiki, tc.stored)
			if got := s.LoadSelectedWiki(tc.wikis); got != tc.want {
				t.Fatalf("LoadSelectedWiki() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadSortOrder_UnknownIsNewest(t *testing.T) {
	s, _ := newFileStore(t)
	bogus := "bogus"
	s.Save(KeySortOrder, &bogus)
	if got := s.LoadSortOrder(); got != order.Newest {
		t.Fatalf("LoadSortOrder() = %q, want newest", got)
	}
}

func TestStore_BackendFailuresAreSwallowed(t *testing.T) {
	s := New(failingKV{}, nil)

	s.SaveFlag(KeyConfigurationOpen, true)
	s.SaveSelectedWiki("2")
	s.SaveSortOrder(order.Oldest)
	s.Save(KeyTheme, nil)

	if s.LoadFlag(KeyConfigurationOpen) {
		t.Fatal("LoadFlag() = true on failing backend")
	}
	if got := s.LoadSelectedWiki(wikis); got != "1" {
		t.Fatalf("LoadSelectedWiki() = %q, want first wiki", got)
	}
	if got := s.LoadSortOrder(); got != order.Newest {
		t.Fatalf("LoadSortOrder() = %q, want newest", got)
	}
	if got := s.Values(); len(got) != 0 {
		t.Fatalf("Values() = %v, want empty", got)
	}
}

func TestStore_NilIsSafe(t *testing.T) {
	var s *Store
	s.SaveTheme("Slate")
	if got := s.LoadTheme(); got != defaultTheme {
		t.Fatalf("LoadTheme() = %q, want default", got)
	}
}

func TestSQLiteKV_RoundTrip(t *testing.T) {
	kv, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = kv.Close() }()

	s := New(kv, nil)
	s.SaveSelectedWiki("3")
	s.SaveSortOrder(order.Oldest)
	s.SaveSortOrder(order.Random)

	if got := s.LoadSelectedWiki(wikis); got != "3" {
		t.Fatalf("LoadSelectedWiki() = %q, want 3", got)
	}
	if got := s.LoadSortOrder(); got != order.Random {
		t.Fatalf("LoadSortOrder() = %q, want random", got)
	}

	s.Save(KeySelectedWiki, nil)
	if _, ok := s.Load(KeySelectedWiki); ok {
		t.Fatal("key still present after delete")
	}
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	s, closer, err := Open(BackendSQLite, filepath.Join(dir, "prefs.db"), nil)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	s.SaveTheme("Slate")
	if got := s.LoadTheme(); got != "Slate" {
		t.Fatalf("LoadTheme() = %q, want Slate", got)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, closer, err := Open("", filepath.Join(dir, "prefs.toml"), nil); err != nil {
		t.Fatalf("Open(toml): %v", err)
	} else {
		_ = closer.Close()
	}

	if _, _, err := Open("redis", "", nil); err == nil {
		t.Fatal("Open(redis) should fail")
	}
}

func ptr(s string) *string { return &s }
