package reviews

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWikiID_UnmarshalNumberOrString(t *testing.T) {
	var wikis []Wiki
	if err := json.Unmarshal([]byte(`[{"id":1},{"id":"2"},{"id":" 3 "},{"id":null}]`), &wikis); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	want := []WikiID{"1", "2", "3", ""}
	for i, w := range wikis {
		if w.ID != want[i] {
			t.Fatalf("wikis[%d].ID = %q, want %q", i, w.ID, want[i])
		}
	}

	var bad Wiki
	if err := json.Unmarshal([]byte(`{"id":true}`), &bad); err == nil {
		t.Fatalf("Unmarshal(bool id) returned nil error")
	}
}

func TestWikiID_MarshalKeepsNumbers(t *testing.T) {
	out, err := json.Marshal(struct {
		A WikiID `json:"a"`
		B WikiID `json:"b"`
	}{A: "12", B: "fi"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != `{"a":12,"b":"fi"}` {
		t.Fatalf("Marshal = %s, want numeric a and string b", out)
	}
}

func TestWikiID_Matches(t *testing.T) {
	cases := []struct {
		a, b WikiID
		want bool
	}{
		{"1", "1", true},
		{"01", "1", true},
		{" 1", "1", true},
		{"fi", "fi", true},
		{"fi", "en", false},
		{"1", "2", false},
		{"", "", false},
		{"1", "", false},
	}
	for _, tc := range cases {
		if got := tc.a.Matches(tc.b); got != tc.want {
			t.Fatalf("%q.Matches(%q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPage_PendingTime(t *testing.T) {
	p := Page{PendingSince: "2024-05-01T10:00:00Z"}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if got := p.PendingTime(); !got.Equal(want) {
		t.Fatalf("PendingTime = %v, want %v", got, want)
	}
	for _, value := range []string{"", "yesterday", "2024-13-40"} {
		if got := (Page{PendingSince: value}).PendingTime(); !got.IsZero() {
			t.Fatalf("PendingTime(%q) = %v, want zero", value, got)
		}
	}
}

func TestPage_CloneDetachesRevisions(t *testing.T) {
	p := Page{PageID: 1, Revisions: []Revision{{RevID: 1}}}
	dup := p.Clone()
	dup.Revisions[0].RevID = 99
	if p.Revisions[0].RevID != 1 {
		t.Fatalf("Clone shares revisions with the original")
	}
}

func TestWiki_Label(t *testing.T) {
	if got := (Wiki{ID: "1", Code: "fi", Name: "Finnish"}).Label(); got != "fi" {
		t.Fatalf("Label = %q, want fi", got)
	}
	if got := (Wiki{ID: "1", Name: "Finnish"}).Label(); got != "Finnish" {
		t.Fatalf("Label = %q, want Finnish", got)
	}
	if got := (Wiki{ID: "1"}).Label(); got != "#1" {
		t.Fatalf("Label = %q, want #1", got)
	}
}
