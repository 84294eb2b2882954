package order

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/reviewdeck/internal/reviews"
)

func pagesAt(hours ...int) []reviews.Page {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]reviews.Page, len(hours))
	for i, h := range hours {
		out[i] = reviews.Page{
			PageID:       int64(i + 1),
			Title:        fmt.Sprintf("page-%d", i+1),
			PendingSince: base.Add(time.Duration(h) * time.Hour).Format(time.RFC3339),
		}
	}
	return out
}

func ids(pages []reviews.Page) []int64 {
	out := make([]int64, len(pages))
	for i, p := range pages {
		out[i] = p.PageID
	}
	return out
}

func TestParse(t *testing.T) {
	assert.Equal(t, Newest, Parse("newest"))
	assert.Equal(t, Oldest, Parse("oldest"))
	assert.Equal(t, Newest, Parse(" OLDEST "), "values are matched exactly")
	assert.Equal(t, Random, Parse("random"))
	assert.Equal(t, Newest, Parse("bogus"))
	assert.Equal(t, Newest, Parse(""))
	assert.True(t, Valid("oldest"))
	assert.False(t, Valid("bogus"))
	assert.False(t, Valid("NEWEST "))
	assert.False(t, Valid("Random"))
}

func TestNext_Cycles(t *testing.T) {
	assert.Equal(t, Oldest, Next(Newest))
	assert.Equal(t, Random, Next(Oldest))
	assert.Equal(t, Newest, Next(Random))
	assert.Equal(t, Oldest, Next("bogus"))
}

func TestSort_NewestAndOldestAreReverses(t *testing.T) {
	pages := pagesAt(5, 1, 9, 3, 7)

	newest := Sort(pages, Newest, nil)
	oldest := Sort(pages, Oldest, nil)

	assert.Equal(t, []int64{3, 5, 1, 4, 2}, ids(newest))
	reversed := slices.Clone(oldest)
	slices.Reverse(reversed)
	assert.Equal(t, ids(newest), ids(reversed))
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	pages := pagesAt(5, 1, 9)
	before := slices.Clone(pages)

	for _, o := range All() {
		out := Sort(pages, o, rand.New(rand.NewPCG(1, 2)))
		require.Len(t, out, len(pages))
		assert.Equal(t, before, pages, "order %s mutated its input", o)
	}
}

func TestSort_StableForEqualTimestamps(t *testing.T) {
	pages := pagesAt(1, 1, 1)
	pages = append(pages, reviews.Page{PageID: 4}, reviews.Page{PageID: 5, PendingSince: "garbage"})

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(Sort(pages, Newest, nil)))
	assert.Equal(t, []int64{4, 5, 1, 2, 3}, ids(Sort(pages, Oldest, nil)))
}

func TestSort_MissingTimestampSortsOldest(t *testing.T) {
	pages := append(pagesAt(2), reviews.Page{PageID: 9})
	assert.Equal(t, []int64{9, 1}, ids(Sort(pages, Oldest, nil)))
	assert.Equal(t, []int64{1, 9}, ids(Sort(pages, Newest, nil)))
}

func TestSort_RandomIsPermutation(t *testing.T) {
	pages := pagesAt(0, 1, 2, 3, 4, 5, 6, 7)
	rng := rand.New(rand.NewPCG(42, 7))

	for range 20 {
		out := Sort(pages, Random, rng)
		got := ids(out)
		slices.Sort(got)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, got)
	}
}

func TestSort_RandomCoversAllPermutations(t *testing.T) {
	pages := pagesAt(0, 1, 2)
	rng := rand.New(rand.NewPCG(3, 4))
	seen := map[string]int{}
	for range 3000 {
		seen[fmt.Sprint(ids(Sort(pages, Random, rng)))]++
	}
	require.Len(t, seen, 6)
	for perm, n := range seen {
		// Expected 500 each; a biased shuffle skews well outside this band.
		assert.InDelta(t, 500, n, 120, "permutation %s", perm)
	}
}

func TestSort_NilInput(t *testing.T) {
	out := Sort(nil, Newest, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
