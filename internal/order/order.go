// Package order arranges pending pages under the dashboard's sort policies.
package order

import (
	"math/rand/v2"
	"slices"

	"github.com/five82/reviewdeck/internal/reviews"
)

// Order names a sort policy.
type Order string

const (
	Newest Order = "newest"
	Oldest Order = "oldest"
	Random Order = "random"
)

var cycle = []Order{Newest, Oldest, Random}

// All returns the known orders in display order.
func All() []Order {
	return slices.Clone(cycle)
}

// Parse maps a stored or user-supplied value to an Order. Anything
// unrecognized becomes Newest.
func Parse(value string) Order {
	switch Order(value) {
	case Oldest:
		return Oldest
	case Random:
		return Random
	default:
		return Newest
	}
}

// Valid reports whether value names a known order exactly.
func Valid(value string) bool {
	return slices.Contains(cycle, Order(value))
}

// Next returns the order after o in the cycle newest, oldest, random.
func Next(o Order) Order {
	idx := slices.Index(cycle, Parse(string(o)))
	return cycle[(idx+1)%len(cycle)]
}

// Label returns a short display name.
func (o Order) Label() string {
	switch Parse(string(o)) {
	case Oldest:
		return "Oldest first"
	case Random:
		return "Random"
	default:
		return "Newest first"
	}
}

// Sort returns pages arranged under o. The input slice is never modified.
// Random uses rng when given (tests seed it) and a package source otherwise.
func Sort(pages []reviews.Page, o Order, rng *rand.Rand) []reviews.Page {
	out := make([]reviews.Page, len(pages))
	copy(out, pages)

	switch Parse(string(o)) {
	case Random:
		shuffle := rand.Shuffle
		if rng != nil {
			shuffle = rng.Shuffle
		}
		shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	case Oldest:
		slices.SortStableFunc(out, func(a, b reviews.Page) int {
			return a.PendingTime().Compare(b.PendingTime())
		})
	default:
		slices.SortStableFunc(out, func(a, b reviews.Page) int {
			return b.PendingTime().Compare(a.PendingTime())
		})
	}
	return out
}
