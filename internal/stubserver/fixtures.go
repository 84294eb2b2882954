package stubserver

import (
	"fmt"
	"time"

	"github.com/five82/reviewdeck/internal/reviews"
)

var demoTitles = []string{
	"Alan Turing", "Helsinki", "Kraków", "Photosynthesis", "Jazz",
	"Baltic Sea", "Ada Lovelace", "Volcano", "Marie Curie", "Sauna",
	"Hanseatic League", "Plate tectonics", "Chopin", "Reindeer", "Berlin Wall",
}

var demoEditors = []struct {
	name    string
	profile reviews.EditorProfile
}{
	{"Example", reviews.EditorProfile{Usergroups: []string{"user"}}},
	{"PatrolBot", reviews.EditorProfile{Usergroups: []string{"bot"}, IsBot: true}},
	{"Reviewer", reviews.EditorProfile{Usergroups: []string{"editor", "autoreview"}, IsAutoreviewed: true}},
	{"Newcomer", reviews.EditorProfile{}},
}

// SeedDemo fills every known wiki with pending pages whose revisions are
// served separately, so clients exercise the revision backfill. Wiki i gets
// 15-i pages.
func (s *Server) SeedDemo(now time.Time) {
	s.mu.Lock()
	wikis := append([]reviews.Wiki(nil), s.wikis...)
	s.mu.Unlock()

	for wi, w := range wikis {
		count := len(demoTitles) - wi
		if count < 1 {
			count = 1
		}
		pages := make([]reviews.Page, 0, count)
		for i := 0; i < count; i++ {
			pageID := int64(1000*(wi+1) + i)
			since := now.Add(-time.Duration(i*7+wi) * time.Hour)
			pages = append(pages, reviews.Page{
				PageID:       pageID,
				Title:        demoTitles[i%len(demoTitles)],
				PendingSince: since.UTC().Format(time.RFC3339),
				StableRevID:  pageID * 10,
			})

			editor := demoEditors[(i+wi)%len(demoEditors)]
			profile := editor.profile
			var categories []string
			if i%5 == 0 {
				categories = []string{"Living people"}
			}
			s.SetRevisions(w.ID, pageID, []reviews.Revision{{
				RevID:         pageID*10 + 1,
				ParentID:      pageID * 10,
				UserName:      editor.name,
				UserID:        int64(100 + i),
				Timestamp:     since.UTC().Format(time.RFC3339),
				Comment:       fmt.Sprintf("Update %s", demoTitles[i%len(demoTitles)]),
				ChangeTags:    []string{"visualeditor"},
				Categories:    categories,
				EditorProfile: &profile,
			}})
		}
		s.SetPending(w.ID, pages)
	}
}
