package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/five82/reviewdeck/internal/reviews"
)

// Backfill returns a copy of pages in which every page without revisions has
// them fetched. Fetches run concurrently, at most limit at a time (0 means
// no bound). A failed fetch leaves that page with no revisions and
// RevisionsFailed set; it never fails the batch. Backfill returns once every
// fetch has settled.
func Backfill(ctx context.Context, api reviews.API, wiki reviews.WikiID, pages []reviews.Page, limit int) []reviews.Page {
	out := make([]reviews.Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range out {
		if len(out[i].Revisions) > 0 {
			continue
		}
		g.Go(func() error {
			revs, err := api.FetchRevisions(ctx, wiki, out[i].PageID)
			if err != nil {
				out[i].Revisions = []reviews.Revision{}
				out[i].RevisionsFailed = true
				return nil
			}
			if revs == nil {
				revs = []reviews.Revision{}
			}
			out[i].Revisions = revs
			return nil
		})
	}
	_ = g.Wait()
	return out
}
