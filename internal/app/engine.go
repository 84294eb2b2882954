package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/five82/reviewdeck/internal/forms"
	"github.com/five82/reviewdeck/internal/logger"
	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
)

// ErrNoPage is returned when an operation needs a page that is not held.
var ErrNoPage = errors.New("page is not in the pending list")

// EngineOptions wire an Engine.
type EngineOptions struct {
	API   reviews.API
	Store *state.Store
	Prefs *prefs.Store
	Log   logger.Logger

	// BackfillConcurrency bounds parallel revision fetches; 0 is unbounded.
	BackfillConcurrency int

	// Rand seeds the random sort order. Nil uses the runtime source.
	Rand *rand.Rand
}

// Engine runs the dashboard's operations against the store: syncing
// pending pages, cache maintenance, sort changes, wiki selection and
// configuration edits.
type Engine struct {
	api         reviews.API
	store       *state.Store
	prefs       *prefs.Store
	log         logger.Logger
	concurrency int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine returns an Engine. Store and API are required.
func NewEngine(opts EngineOptions) *Engine {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	return &Engine{
		api:         opts.API,
		store:       store,
		prefs:       opts.Prefs,
		log:         log.With(map[string]any{"component": "engine"}),
		concurrency: opts.BackfillConcurrency,
		rng:         opts.Rand,
	}
}

// Store returns the engine's state store.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Start reacts to the initial selection the way SelectWiki reacts to a
// change: forms follow the selected wiki and its pages are synced.
func (e *Engine) Start(ctx context.Context) error {
	e.SyncForms()
	return e.Sync(ctx, e.store.SelectedWikiID())
}

// SelectWiki makes id the selected wiki, persists it, repopulates the
// configuration forms and syncs the new wiki's pages.
func (e *Engine) SelectWiki(ctx context.Context, id reviews.WikiID) error {
	e.store.Select(id)
	e.prefs.SaveSelectedWiki(id)
	e.SyncForms()
	return e.Sync(ctx, id)
}

// Sync fetches, enriches and sorts the pending pages of id and commits them
// unless a newer sync, selection change or cache clear happened meanwhile.
// An empty id clears the pages without a request.
func (e *Engine) Sync(ctx context.Context, id reviews.WikiID) error {
	if id.IsZero() {
		e.store.ClearPages()
		return nil
	}

	gen := e.store.BeginSync()
	done := e.store.BeginOp()
	defer done()

	log := e.log.With(map[string]any{"wiki": id.String(), "generation": gen})

	pages, err := e.api.FetchPending(reviews.DeferErrors(ctx), id)
	if err != nil {
		if e.store.FailPages(gen, id, reviews.Message(err)) {
			log.Warn(fmt.Sprintf("pending fetch failed: %v", err))
		}
		return fmt.Errorf("fetch pending: %w", err)
	}

	if !e.store.IsCurrent(gen, id) {
		log.Debug("sync superseded before backfill")
		return nil
	}
	pages = Backfill(ctx, e.api, id, pages, e.concurrency)

	if !e.store.CommitPages(gen, id, pages, e.arrange) {
		log.Debug("sync superseded, result dropped")
		return nil
	}
	log.Debug(fmt.Sprintf("committed %d pages", len(pages)))
	return nil
}

// Refresh asks the backend to re-index id and then syncs. Loading stays on
// across both steps. An empty id does nothing.
func (e *Engine) Refresh(ctx context.Context, id reviews.WikiID) error {
	if id.IsZero() {
		return nil
	}
	done := e.store.BeginOp()
	defer done()

	if err := e.api.Refresh(ctx, id); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return e.Sync(ctx, id)
}

// ClearCache purges the backend cache of id and empties the page list. It
// does not resync. An empty id does nothing.
func (e *Engine) ClearCache(ctx context.Context, id reviews.WikiID) error {
	if id.IsZero() {
		return nil
	}
	done := e.store.BeginOp()
	defer done()

	if err := e.api.ClearCache(ctx, id); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	e.store.ClearPages()
	return nil
}

// SetSortOrder records and persists o and re-sorts the held pages without
// fetching.
func (e *Engine) SetSortOrder(o order.Order) {
	o = order.Parse(string(o))
	e.store.SetSortOrder(o)
	e.prefs.SaveSortOrder(o)
	e.store.ReorderPages(e.arrange)
}

// CycleSortOrder advances to the next sort order and returns it.
func (e *Engine) CycleSortOrder() order.Order {
	next := order.Next(e.store.SortOrder())
	e.SetSortOrder(next)
	return next
}

// SetConfigurationOpen records and persists the panel flag.
func (e *Engine) SetConfigurationOpen(open bool) {
	e.store.SetConfigurationOpen(open)
	e.prefs.SaveFlag(prefs.KeyConfigurationOpen, open)
}

// ToggleConfiguration flips the panel flag and returns the new value.
func (e *Engine) ToggleConfiguration() bool {
	open := !e.store.Snapshot().ConfigurationOpen
	e.SetConfigurationOpen(open)
	return open
}

// SyncForms fills the configuration forms from the current wiki, or empties
// them when no wiki is selected.
func (e *Engine) SyncForms() {
	wiki, ok := e.store.Snapshot().CurrentWiki()
	if !ok {
		e.store.SetForms(forms.Forms{})
		return
	}
	e.store.SetForms(forms.FromConfiguration(wiki.Configuration))
}

// EditForms replaces the form text without saving it.
func (e *Engine) EditForms(f forms.Forms) {
	e.store.SetForms(f)
}

// SaveConfiguration parses the two text blocks and sends them for id. On
// success the wiki takes the configuration echoed by the backend and the
// forms are refreshed from it; on failure the edited text stays.
func (e *Engine) SaveConfiguration(ctx context.Context, id reviews.WikiID, blocking, groups string) error {
	if id.IsZero() {
		return nil
	}
	done := e.store.BeginOp()
	defer done()

	edited := forms.Forms{BlockingCategories: blocking, AutoApprovedGroups: groups}
	saved, err := e.api.UpdateConfiguration(ctx, id, edited.Configuration())
	if err != nil {
		e.store.SetForms(edited)
		return fmt.Errorf("update configuration: %w", err)
	}
	if !e.store.ReplaceConfiguration(id, saved) {
		e.log.With(map[string]any{"wiki": id.String()}).Warn("saved configuration for a wiki that is no longer listed")
	}
	if e.store.SelectedWikiID().Matches(id) {
		e.SyncForms()
	}
	return nil
}

// Autoreview runs the backend's dry-run checks for a held page of the
// selected wiki.
func (e *Engine) Autoreview(ctx context.Context, pageID int64) (reviews.AutoreviewResponse, error) {
	snap := e.store.Snapshot()
	if snap.SelectedWikiID.IsZero() {
		return reviews.AutoreviewResponse{}, ErrNoPage
	}
	found := false
	for _, p := range snap.Pages {
		if p.PageID == pageID {
			found = true
			break
		}
	}
	if !found {
		return reviews.AutoreviewResponse{}, ErrNoPage
	}

	done := e.store.BeginOp()
	defer done()
	res, err := e.api.Autoreview(ctx, snap.SelectedWikiID, pageID)
	if err != nil {
		return reviews.AutoreviewResponse{}, fmt.Errorf("autoreview: %w", err)
	}
	return res, nil
}

// LoadRemoteWikis replaces the wiki list with the backend's. The selection
// is re-resolved against the new list.
func (e *Engine) LoadRemoteWikis(ctx context.Context) ([]reviews.Wiki, error) {
	done := e.store.BeginOp()
	defer done()

	wikis, err := e.api.ListWikis(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wikis: %w", err)
	}
	e.store.SetWikis(wikis)

	current := e.store.SelectedWikiID()
	next := e.prefs.LoadSelectedWiki(wikis)
	for _, w := range wikis {
		if w.ID.Matches(current) {
			next = w.ID
			break
		}
	}
	if next != current {
		e.store.Select(next)
	}
	e.SyncForms()
	return wikis, nil
}

func (e *Engine) arrange(pages []reviews.Page, o order.Order) []reviews.Page {
	if e.rng == nil {
		return order.Sort(pages, o, nil)
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return order.Sort(pages, o, e.rng)
}
