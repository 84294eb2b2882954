package state

import (
	"testing"

	"github.com/five82/reviewdeck/internal/reviews"
)

func pages(n int) []reviews.Page {
	out := make([]reviews.Page, n)
	for i := range out {
		out[i] = reviews.Page{PageID: int64(i + 1)}
	}
	return out
}

func TestSnapshot_CurrentWiki(t *testing.T) {
	snap := Snapshot{
		Wikis:          []reviews.Wiki{{ID: "1", Code: "de"}, {ID: "2", Code: "en"}},
		SelectedWikiID: "2",
	}
	w, ok := snap.CurrentWiki()
	if !ok || w.Code != "en" {
		t.Fatalf("CurrentWiki() = %#v, %v; want en", w, ok)
	}

	snap.SelectedWikiID = "9"
	if _, ok := snap.CurrentWiki(); ok {
		t.Fatal("CurrentWiki() found a wiki for an unknown id")
	}

	snap.SelectedWikiID = ""
	if _, ok := snap.CurrentWiki(); ok {
		t.Fatal("CurrentWiki() found a wiki with no selection")
	}
}

func TestSnapshot_VisiblePagesAndHasMore(t *testing.T) {
	cases := []struct {
		total, limit int
		wantVisible  int
		wantMore     bool
	}{
		{0, 10, 0, false},
		{10, 10, 10, false},
		{15, 10, 10, true},
		{15, 0, DefaultDisplayLimit, true},
		{3, -1, 3, false},
		{15, 20, 15, false},
	}
	for _, tc := range cases {
		snap := Snapshot{Pages: pages(tc.total)}
		if got := len(snap.VisiblePages(tc.limit)); got != tc.wantVisible {
			t.Fatalf("total=%d limit=%d: len(VisiblePages) = %d, want %d", tc.total, tc.limit, got, tc.wantVisible)
		}
		if got := snap.HasMorePages(tc.limit); got != tc.wantMore {
			t.Fatalf("total=%d limit=%d: HasMorePages = %v, want %v", tc.total, tc.limit, got, tc.wantMore)
		}
	}
}

func TestSnapshot_Project(t *testing.T) {
	snap := Snapshot{
		Wikis:          []reviews.Wiki{{ID: "1", Code: "de"}},
		SelectedWikiID: "1",
		Pages:          pages(15),
	}
	v := snap.Project(10)
	if v.CurrentWiki == nil || v.CurrentWiki.Code != "de" {
		t.Fatalf("CurrentWiki = %#v, want de", v.CurrentWiki)
	}
	if len(v.VisiblePages) != 10 || !v.HasMorePages || v.HiddenPages != 5 {
		t.Fatalf("Project(10) = %d visible, more=%v, hidden=%d; want 10, true, 5",
			len(v.VisiblePages), v.HasMorePages, v.HiddenPages)
	}
	if v.VisiblePages[0].PageID != 1 || v.VisiblePages[9].PageID != 10 {
		t.Fatalf("VisiblePages should be a prefix; got first=%d last=%d", v.VisiblePages[0].PageID, v.VisiblePages[9].PageID)
	}
}
