package state

import "github.com/five82/reviewdeck/internal/reviews"

// DefaultDisplayLimit caps the page list when no limit is configured.
const DefaultDisplayLimit = 10

// View is the derived, render-ready projection of a Snapshot.
type View struct {
	CurrentWiki  *reviews.Wiki
	VisiblePages []reviews.Page
	HasMorePages bool
	HiddenPages  int
}

// CurrentWiki returns the wiki whose id matches the selection.
func (s Snapshot) CurrentWiki() (reviews.Wiki, bool) {
	if s.SelectedWikiID.IsZero() {
		return reviews.Wiki{}, false
	}
	for _, w := range s.Wikis {
		if w.ID.Matches(s.SelectedWikiID) {
			return w, true
		}
	}
	return reviews.Wiki{}, false
}

// VisiblePages returns at most limit pages. A non-positive limit uses
// DefaultDisplayLimit.
func (s Snapshot) VisiblePages(limit int) []reviews.Page {
	limit = normalizeLimit(limit)
	if len(s.Pages) <= limit {
		return s.Pages
	}
	return s.Pages[:limit]
}

// HasMorePages reports whether pages beyond the limit are hidden.
func (s Snapshot) HasMorePages(limit int) bool {
	return len(s.Pages) > normalizeLimit(limit)
}

// Project computes every derived value at once.
func (s Snapshot) Project(limit int) View {
	v := View{
		VisiblePages: s.VisiblePages(limit),
		HasMorePages: s.HasMorePages(limit),
	}
	v.HiddenPages = len(s.Pages) - len(v.VisiblePages)
	if w, ok := s.CurrentWiki(); ok {
		v.CurrentWiki = &w
	}
	return v
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultDisplayLimit
	}
	return limit
}
