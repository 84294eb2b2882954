package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(unknown) = %q, want Nightfox", got)
	}
}

func TestGetThemeFallback(t *testing.T) {
	if got := GetTheme("nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(nope).Name = %q, want Nightfox", got)
	}
}

func TestThemeStatusColor(t *testing.T) {
	th := GetTheme("Slate")
	if got := th.StatusColor(" Blocked "); got != th.StatusColors["blocked"] {
		t.Fatalf("StatusColor(Blocked) = %q, want %q", got, th.StatusColors["blocked"])
	}
	if got := th.StatusColor("unknown"); got != th.Muted {
		t.Fatalf("StatusColor(unknown) = %q, want %q", got, th.Muted)
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"approve", "manual", "blocked", "passed", "failed", "offline"} {
			if th.StatusColors[status] == "" {
				t.Fatalf("theme %s has no color for %s", name, status)
			}
		}
	}
}

func TestThemeLevelColor(t *testing.T) {
	th := GetTheme("Nightfox")
	if got := th.LevelColor("error"); got != th.Danger {
		t.Fatalf("LevelColor(error) = %q, want %q", got, th.Danger)
	}
	if got := th.LevelColor("WARN"); got != th.Warning {
		t.Fatalf("LevelColor(WARN) = %q, want %q", got, th.Warning)
	}
	if got := th.LevelColor("info"); got != th.Text {
		t.Fatalf("LevelColor(info) = %q, want %q", got, th.Text)
	}
}
