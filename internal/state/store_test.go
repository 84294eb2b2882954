package state

import (
	"sync"
	"testing"
	"time"

	"github.com/five82/reviewdeck/internal/forms"
	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/reviews"
)

func seeded() *Store {
	return NewStore(Initial{
		Wikis: []reviews.Wiki{
			{ID: "1", Code: "de", Configuration: reviews.Configuration{BlockingCategories: []string{"A"}}},
			{ID: "2", Code: "en"},
		},
		SelectedWikiID: "1",
		SortOrder:      "bogus",
	})
}

func TestNewStore_NormalizesSortOrder(t *testing.T) {
	s := seeded()
	if got := s.SortOrder(); got != order.Newest {
		t.Fatalf("SortOrder() = %q, want %q", got, order.Newest)
	}
}

func TestStore_SnapshotClones(t *testing.T) {
	s := seeded()
	gen := s.BeginSync()
	if !s.CommitPages(gen, "1", []reviews.Page{{PageID: 1, Revisions: []reviews.Revision{{RevID: 9}}}}, nil) {
		t.Fatal("CommitPages() = false, want true")
	}

	snap := s.Snapshot()
	snap.Pages[0].PageID = 999
	snap.Pages[0].Revisions[0].RevID = 999
	snap.Wikis[0].Configuration.BlockingCategories[0] = "mutated"

	again := s.Snapshot()
	if again.Pages[0].PageID != 1 || again.Pages[0].Revisions[0].RevID != 9 {
		t.Fatalf("Snapshot should clone pages; got %#v", again.Pages[0])
	}
	if again.Wikis[0].Configuration.BlockingCategories[0] != "A" {
		t.Fatalf("Snapshot should clone wiki configuration; got %v", again.Wikis[0].Configuration)
	}
	if again.LastSynced.IsZero() {
		t.Fatal("LastSynced should be set after a commit")
	}
}

func TestStore_StaleCommitIsDropped(t *testing.T) {
	s := seeded()

	first := s.BeginSync()
	second := s.BeginSync()

	if !s.CommitPages(second, "1", []reviews.Page{{PageID: 2}}, nil) {
		t.Fatal("latest commit rejected")
	}
	if s.CommitPages(first, "1", []reviews.Page{{PageID: 1}}, nil) {
		t.Fatal("stale commit accepted")
	}
	if got := s.Snapshot().Pages; len(got) != 1 || got[0].PageID != 2 {
		t.Fatalf("Pages = %#v, want page 2 only", got)
	}
}

func TestStore_SelectInvalidatesInFlightSync(t *testing.T) {
	s := seeded()
	gen := s.BeginSync()
	s.Select("2")

	if s.CommitPages(gen, "1", []reviews.Page{{PageID: 1}}, nil) {
		t.Fatal("commit for a deselected wiki accepted")
	}
	if s.IsCurrent(gen, "2") {
		t.Fatal("IsCurrent() = true for a generation issued before Select")
	}
	if got := s.SelectedWikiID(); got != "2" {
		t.Fatalf("SelectedWikiID() = %q, want 2", got)
	}
}

func TestStore_CommitRequiresSelectedWiki(t *testing.T) {
	s := seeded()
	gen := s.BeginSync()
	if s.CommitPages(gen, "2", []reviews.Page{{PageID: 1}}, nil) {
		t.Fatal("commit for an unselected wiki accepted")
	}
	if !s.CommitPages(gen, "01", []reviews.Page{{PageID: 1}}, nil) {
		t.Fatal("commit with numerically equal id rejected")
	}
}

func TestStore_ClearPagesInvalidatesSync(t *testing.T) {
	s := seeded()
	gen := s.BeginSync()
	s.ClearPages()

	if s.CommitPages(gen, "1", []reviews.Page{{PageID: 1}}, nil) {
		t.Fatal("commit after ClearPages accepted")
	}
	if got := s.Snapshot().Pages; len(got) != 0 {
		t.Fatalf("Pages = %#v, want empty", got)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	s := seeded()

	for i := 1; i <= 3; i++ {
		if !s.FailPages(s.BeginSync(), "1", "down") {
			t.Fatalf("FailPages() #%d = false, want true", i)
		}
		snap := s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if want := i >= 2; snap.IsOffline() != want {
			t.Fatalf("IsOffline() = %v, want %v with %d failures", snap.IsOffline(), want, i)
		}
	}

	s.CommitPages(s.BeginSync(), "1", nil, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("failures not reset after success: %d", snap.ConsecutiveFailures)
	}
}

func TestStore_StaleFailureLeavesErrorSlot(t *testing.T) {
	s := seeded()

	stale := s.BeginSync()
	s.Select("2")
	current := s.BeginSync()
	if !s.CommitPages(current, "2", nil, nil) {
		t.Fatal("CommitPages() = false, want true")
	}

	if s.FailPages(stale, "1", "wiki 1 down") {
		t.Fatal("FailPages() for a superseded sync = true, want false")
	}
	snap := s.Snapshot()
	if snap.Error != "" {
		t.Fatalf("Error = %q, want empty", snap.Error)
	}
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", snap.ConsecutiveFailures)
	}

	if !s.FailPages(s.BeginSync(), "2", "wiki 2 down") {
		t.Fatal("FailPages() for the current sync = false, want true")
	}
	if got := s.Snapshot().Error; got != "wiki 2 down" {
		t.Fatalf("Error = %q, want %q", got, "wiki 2 down")
	}
}

func TestStore_LoadingCountsOverlappingOps(t *testing.T) {
	s := seeded()

	endA := s.BeginOp()
	endB := s.BeginOp()
	if !s.Snapshot().Loading {
		t.Fatal("Loading = false with two ops in flight")
	}

	endA()
	endA()
	if !s.Snapshot().Loading {
		t.Fatal("Loading = false while one op still runs")
	}

	endB()
	if s.Snapshot().Loading {
		t.Fatal("Loading = true after all ops ended")
	}
}

func TestStore_ErrorSlot(t *testing.T) {
	s := seeded()
	var slot reviews.ErrorSlot = s

	slot.SetError("Not Found")
	if got := s.Snapshot().Error; got != "Not Found" {
		t.Fatalf("Error = %q, want Not Found", got)
	}
	slot.ClearError()
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("Error = %q, want empty", got)
	}
}

func TestStore_ReplaceConfiguration(t *testing.T) {
	s := seeded()
	cfg := reviews.Configuration{BlockingCategories: []string{"X"}, AutoApprovedGroups: []string{"bot"}}

	if !s.ReplaceConfiguration("2", cfg) {
		t.Fatal("ReplaceConfiguration() = false, want true")
	}
	if s.ReplaceConfiguration("404", cfg) {
		t.Fatal("ReplaceConfiguration() matched an unknown wiki")
	}

	cfg.BlockingCategories[0] = "mutated"
	got := s.Snapshot().Wikis[1].Configuration
	if got.BlockingCategories[0] != "X" || got.AutoApprovedGroups[0] != "bot" {
		t.Fatalf("Configuration = %#v, want X/bot", got)
	}
}

func TestStore_ReorderPages(t *testing.T) {
	s := seeded()
	s.CommitPages(s.BeginSync(), "1", []reviews.Page{{PageID: 1}, {PageID: 2}}, nil)

	s.SetSortOrder(order.Oldest)

	var seen order.Order
	s.ReorderPages(func(pages []reviews.Page, o order.Order) []reviews.Page {
		seen = o
		pages[0], pages[1] = pages[1], pages[0]
		return pages
	})
	if seen != order.Oldest {
		t.Fatalf("arranger got order %q, want oldest", seen)
	}
	if got := s.Snapshot().Pages; got[0].PageID != 2 {
		t.Fatalf("Pages = %#v, want reordered", got)
	}
}

func TestStore_CommitArrangesWithOrderAtCommitTime(t *testing.T) {
	s := seeded()
	gen := s.BeginSync()
	s.SetSortOrder(order.Random)

	var seen order.Order
	s.CommitPages(gen, "1", []reviews.Page{{PageID: 1}}, func(pages []reviews.Page, o order.Order) []reviews.Page {
		seen = o
		return pages
	})
	if seen != order.Random {
		t.Fatalf("arranger got order %q, want random", seen)
	}
}

func TestStore_SubscribeCoalesces(t *testing.T) {
	s := seeded()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetConfigurationOpen(true)
	s.SetForms(forms.Forms{BlockingCategories: "A"})
	s.SetSortOrder(order.Random)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after mutation")
	}
	select {
	case <-ch:
		t.Fatal("burst should coalesce into one notification")
	default:
	}

	snap := s.Snapshot()
	if !snap.ConfigurationOpen || snap.Forms.BlockingCategories != "A" || snap.SortOrder != order.Random {
		t.Fatalf("snapshot = %#v, want mutations applied", snap)
	}
}

func TestStore_UnsubscribeStopsNotifications(t *testing.T) {
	s := seeded()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	s.SetError("x")
	select {
	case <-ch:
		t.Fatal("notification after cancel")
	default:
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := seeded()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			end := s.BeginOp()
			s.CommitPages(s.BeginSync(), "1", []reviews.Page{{PageID: int64(i)}}, nil)
			end()
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if s.Snapshot().Loading {
		t.Fatal("Loading = true after all goroutines finished")
	}
}
