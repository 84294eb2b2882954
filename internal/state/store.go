package state

import (
	"sync"
	"time"

	"github.com/five82/reviewdeck/internal/forms"
	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/reviews"
)

// Snapshot is a point-in-time copy of the application state.
type Snapshot struct {
	Wikis               []reviews.Wiki
	SelectedWikiID      reviews.WikiID
	SortOrder           order.Order
	Pages               []reviews.Page
	Loading             bool
	Error               string
	ConfigurationOpen   bool
	Forms               forms.Forms
	LastSynced          time.Time
	ConsecutiveFailures int // pending fetch failures since the last commit
}

// IsOffline returns true when the pending list failed to load repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Initial seeds a Store.
type Initial struct {
	Wikis             []reviews.Wiki
	SelectedWikiID    reviews.WikiID
	SortOrder         order.Order
	ConfigurationOpen bool
}

// Store owns the application state. All mutation goes through its methods;
// readers take snapshots. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	inflight   int
	generation uint64
	subs       map[int]chan struct{}
	nextSub    int
}

// NewStore returns a Store seeded with init.
func NewStore(init Initial) *Store {
	s := &Store{}
	s.snapshot.Wikis = cloneWikis(init.Wikis)
	s.snapshot.SelectedWikiID = init.SelectedWikiID
	s.snapshot.SortOrder = order.Parse(string(init.SortOrder))
	s.snapshot.ConfigurationOpen = init.ConfigurationOpen
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Wikis = cloneWikis(s.snapshot.Wikis)
	snap.Pages = clonePages(s.snapshot.Pages)
	snap.SortOrder = order.Parse(string(s.snapshot.SortOrder))
	return snap
}

// Subscribe returns a channel that receives a signal after every change,
// coalescing bursts, and a function that cancels the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// SelectedWikiID returns the current selection.
func (s *Store) SelectedWikiID() reviews.WikiID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.SelectedWikiID
}

// SortOrder returns the current sort policy.
func (s *Store) SortOrder() order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return order.Parse(string(s.snapshot.SortOrder))
}

// SetWikis replaces the wiki list wholesale.
func (s *Store) SetWikis(wikis []reviews.Wiki) {
	s.mutate(func() {
		s.snapshot.Wikis = cloneWikis(wikis)
	})
}

// Select changes the selected wiki. Pages belonging to the previous
// selection are dropped and any in-flight sync is invalidated.
func (s *Store) Select(id reviews.WikiID) {
	s.mutate(func() {
		s.snapshot.SelectedWikiID = id
		s.snapshot.Pages = nil
		s.snapshot.ConsecutiveFailures = 0
		s.generation++
	})
}

// SetSortOrder records a new sort policy.
func (s *Store) SetSortOrder(o order.Order) {
	s.mutate(func() {
		s.snapshot.SortOrder = order.Parse(string(o))
	})
}

// Arranger orders pages under a sort policy.
type Arranger func(pages []reviews.Page, o order.Order) []reviews.Page

// ReorderPages rearranges the held pages with the current sort order. It does
// not invalidate in-flight syncs; they arrange with the current order at
// commit.
func (s *Store) ReorderPages(arrange Arranger) {
	s.mutate(func() {
		if len(s.snapshot.Pages) == 0 {
			return
		}
		s.snapshot.Pages = arrange(clonePages(s.snapshot.Pages), s.snapshot.SortOrder)
	})
}

// BeginSync issues a new generation for the pending-pages slot. Only a
// commit carrying the latest generation is accepted.
func (s *Store) BeginSync() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// IsCurrent reports whether gen is the latest generation and wiki is still
// selected.
func (s *Store) IsCurrent(gen uint64, wiki reviews.WikiID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isCurrentLocked(gen, wiki)
}

// CommitPages stores pages for wiki when gen is still current, arranged with
// the sort order in effect at commit time (nil arrange keeps them as given).
// It reports whether the commit happened; false means the result was stale.
func (s *Store) CommitPages(gen uint64, wiki reviews.WikiID, pages []reviews.Page, arrange Arranger) bool {
	committed := false
	s.mutate(func() {
		if !s.isCurrentLocked(gen, wiki) {
			return
		}
		pages = clonePages(pages)
		if arrange != nil {
			pages = arrange(pages, s.snapshot.SortOrder)
		}
		s.snapshot.Pages = pages
		s.snapshot.LastSynced = time.Now()
		s.snapshot.ConsecutiveFailures = 0
		committed = true
	})
	return committed
}

// FailPages empties the page list and records message in the error slot
// after a failed fetch, but only when gen is current.
func (s *Store) FailPages(gen uint64, wiki reviews.WikiID, message string) bool {
	failed := false
	s.mutate(func() {
		if !s.isCurrentLocked(gen, wiki) {
			return
		}
		s.snapshot.Pages = nil
		s.snapshot.Error = message
		s.snapshot.ConsecutiveFailures++
		failed = true
	})
	return failed
}

// ClearPages empties the page list and invalidates in-flight syncs.
func (s *Store) ClearPages() {
	s.mutate(func() {
		s.snapshot.Pages = nil
		s.generation++
	})
}

// BeginOp marks the start of an asynchronous operation. The returned
// function ends it and is safe to call more than once.
func (s *Store) BeginOp() func() {
	s.mutate(func() {
		s.inflight++
		s.snapshot.Loading = true
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mutate(func() {
				if s.inflight > 0 {
					s.inflight--
				}
				s.snapshot.Loading = s.inflight > 0
			})
		})
	}
}

// ClearError empties the error slot.
func (s *Store) ClearError() {
	s.mutate(func() {
		s.snapshot.Error = ""
	})
}

// SetError overwrites the error slot.
func (s *Store) SetError(message string) {
	s.mutate(func() {
		s.snapshot.Error = message
	})
}

// SetConfigurationOpen records whether the configuration panel is open.
func (s *Store) SetConfigurationOpen(open bool) {
	s.mutate(func() {
		s.snapshot.ConfigurationOpen = open
	})
}

// SetForms replaces the configuration text blocks.
func (s *Store) SetForms(f forms.Forms) {
	s.mutate(func() {
		s.snapshot.Forms = f
	})
}

// ReplaceConfiguration swaps the configuration of the wiki matching id.
// It reports whether a wiki matched.
func (s *Store) ReplaceConfiguration(id reviews.WikiID, cfg reviews.Configuration) bool {
	found := false
	s.mutate(func() {
		for i := range s.snapshot.Wikis {
			if s.snapshot.Wikis[i].ID.Matches(id) {
				s.snapshot.Wikis[i].Configuration = cfg.Clone()
				found = true
				return
			}
		}
	})
	return found
}

func (s *Store) isCurrentLocked(gen uint64, wiki reviews.WikiID) bool {
	return gen == s.generation && s.snapshot.SelectedWikiID.Matches(wiki)
}

// mutate runs fn under the write lock and then notifies subscribers.
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	subs := make([]chan struct{}, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func clonePages(pages []reviews.Page) []reviews.Page {
	if len(pages) == 0 {
		return nil
	}
	dup := make([]reviews.Page, len(pages))
	for i, p := range pages {
		dup[i] = p.Clone()
	}
	return dup
}

func cloneWikis(wikis []reviews.Wiki) []reviews.Wiki {
	if len(wikis) == 0 {
		return nil
	}
	dup := make([]reviews.Wiki, len(wikis))
	for i, w := range wikis {
		dup[i] = w
		dup[i].Configuration = w.Configuration.Clone()
	}
	return dup
}
