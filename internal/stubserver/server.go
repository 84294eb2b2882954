// Package stubserver serves the pending-changes JSON API from in-memory
// fixtures. It backs the engine tests and `reviewdeck stub`.
//
// Faults, latency and holds can be injected per operation, wiki and page so
// tests can reproduce slow or failing backends and out-of-order responses.
package stubserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/reviewdeck/internal/logger"
	"github.com/five82/reviewdeck/internal/reviews"
)

// Op names an API operation.
type Op string

const (
	OpWikis         Op = "wikis"
	OpPending       Op = "pending"
	OpRevisions     Op = "revisions"
	OpRefresh       Op = "refresh"
	OpClear         Op = "clear"
	OpConfiguration Op = "configuration"
	OpAutoreview    Op = "autoreview"
)

// Fault is an injected failure response. A zero Status means 500. An empty
// Message sends a body without an error field.
type Fault struct {
	Status  int
	Message string
}

// Target selects requests. Empty Wiki and zero Page match any.
type Target struct {
	Op   Op
	Wiki reviews.WikiID
	Page int64
}

// Server is an in-memory pending-changes backend.
type Server struct {
	mu        sync.Mutex
	wikis     []reviews.Wiki
	upstream  map[string][]reviews.Page
	pending   map[string][]reviews.Page
	revisions map[string]map[int64][]reviews.Revision
	faults    map[Target]Fault
	holds     map[Target]chan struct{}
	hits      map[Op]int
	latency   time.Duration

	log logger.Logger
}

// New returns a Server knowing wikis and no pending pages.
func New(log logger.Logger, wikis ...reviews.Wiki) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		upstream:  map[string][]reviews.Page{},
		pending:   map[string][]reviews.Page{},
		revisions: map[string]map[int64][]reviews.Revision{},
		faults:    map[Target]Fault{},
		holds:     map[Target]chan struct{}{},
		hits:      map[Op]int{},
		log:       log.With(map[string]any{"component": "stubserver"}),
	}
	for _, w := range wikis {
		w.Configuration = normalizeConfiguration(w.Configuration)
		s.wikis = append(s.wikis, w)
	}
	return s
}

// Handler returns the chi router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/wikis", func(r chi.Router) {
		r.Get("/", s.handleListWikis)
		r.Route("/{wiki}", func(r chi.Router) {
			r.Use(s.wikiCtx)
			r.Get("/pending/", s.handlePending)
			r.Post("/refresh/", s.handleRefresh)
			r.Post("/clear/", s.handleClear)
			r.Put("/configuration/", s.handleConfiguration)
			r.Get("/pages/{page}/revisions/", s.handleRevisions)
			r.Post("/pages/{page}/autoreview/", s.handleAutoreview)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info(fmt.Sprintf("stub backend listening on %s", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("stub backend: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown stub backend: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stub backend: %w", err)
		}
		return nil
	}
}

// SetPending seeds the pending pages of a wiki. Refresh restores this list
// after a clear.
func (s *Server) SetPending(wiki reviews.WikiID, pages []reviews.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keyLocked(wiki)
	s.upstream[key] = clonePages(pages)
	s.pending[key] = clonePages(pages)
}

// SetRevisions seeds the revisions served for one page.
func (s *Server) SetRevisions(wiki reviews.WikiID, pageID int64, revs []reviews.Revision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keyLocked(wiki)
	if s.revisions[key] == nil {
		s.revisions[key] = map[int64][]reviews.Revision{}
	}
	s.revisions[key][pageID] = append([]reviews.Revision(nil), revs...)
}

// Fail makes requests matching t answer with f until ClearFaults.
func (s *Server) Fail(t Target, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[s.normalizeTarget(t)] = f
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[Target]Fault{}
}

// Hold blocks requests matching t until the returned release function runs
// or the request is canceled.
func (s *Server) Hold(t Target) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.normalizeTarget(t)
	gate := make(chan struct{})
	s.holds[key] = gate

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[key] == gate {
				delete(s.holds, key)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// SetLatency delays every response by d.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// Hits returns how many requests reached op.
func (s *Server) Hits(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[op]
}

// Configuration returns the stored configuration of a wiki.
func (s *Server) Configuration(wiki reviews.WikiID) (reviews.Configuration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wikis {
		if w.ID.Matches(wiki) {
			return w.Configuration.Clone(), true
		}
	}
	return reviews.Configuration{}, false
}

type ctxKey struct{}

func (s *Server) wikiCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := reviews.WikiID(chi.URLParam(r, "wiki"))
		s.mu.Lock()
		var found *reviews.Wiki
		for i := range s.wikis {
			if s.wikis[i].ID.Matches(id) {
				wiki := s.wikis[i]
				found = &wiki
				break
			}
		}
		s.mu.Unlock()
		if found == nil {
			writeError(w, http.StatusNotFound, "Wiki not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, *found)))
	})
}

func wikiFrom(r *http.Request) reviews.Wiki {
	w, _ := r.Context().Value(ctxKey{}).(reviews.Wiki)
	return w
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.With(map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": middleware.GetReqID(r.Context()),
			"duration":   time.Since(start).String(),
		}).Debug("request served")
	})
}

// admit applies hits, latency, holds and faults. It returns false when the
// response was already written or the request went away.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, op Op, wiki reviews.WikiID, page int64) bool {
	t := Target{Op: op, Wiki: wiki, Page: page}

	s.mu.Lock()
	s.hits[op]++
	latency := s.latency
	gate := s.lookupHoldLocked(t)
	fault, faulted := s.lookupFaultLocked(t)
	s.mu.Unlock()

	ctx := r.Context()
	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false
		}
	}
	if faulted {
		status := fault.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if fault.Message == "" {
			writeJSON(w, status, map[string]any{"detail": "injected fault"})
		} else {
			writeError(w, status, fault.Message)
		}
		return false
	}
	return true
}

func (s *Server) handleListWikis(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, OpWikis, "", 0) {
		return
	}
	s.mu.Lock()
	wikis := make([]reviews.Wiki, len(s.wikis))
	for i, wk := range s.wikis {
		wikis[i] = wk
		wikis[i].Configuration = wk.Configuration.Clone()
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, reviews.WikiListResponse{Wikis: wikis})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	if !s.admit(w, r, OpPending, wiki.ID, 0) {
		return
	}
	s.mu.Lock()
	pages := clonePages(s.pending[wiki.ID.String()])
	s.mu.Unlock()
	if pages == nil {
		pages = []reviews.Page{}
	}
	writeJSON(w, http.StatusOK, reviews.PendingResponse{Pages: pages})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	if !s.admit(w, r, OpRefresh, wiki.ID, 0) {
		return
	}
	s.mu.Lock()
	key := wiki.ID.String()
	s.pending[key] = clonePages(s.upstream[key])
	pages := clonePages(s.pending[key])
	s.mu.Unlock()
	if pages == nil {
		pages = []reviews.Page{}
	}
	writeJSON(w, http.StatusOK, reviews.PendingResponse{Pages: pages})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	if !s.admit(w, r, OpClear, wiki.ID, 0) {
		return
	}
	s.mu.Lock()
	key := wiki.ID.String()
	cleared := len(s.pending[key])
	delete(s.pending, key)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	if !s.admit(w, r, OpConfiguration, wiki.ID, 0) {
		return
	}
	var cfg reviews.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	cfg = normalizeConfiguration(cfg)

	s.mu.Lock()
	for i := range s.wikis {
		if s.wikis[i].ID.Matches(wiki.ID) {
			s.wikis[i].Configuration = cfg.Clone()
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	if !s.admit(w, r, OpRevisions, wiki.ID, pageID) {
		return
	}
	revs, found := s.revisionsFor(wiki.ID, pageID)
	if !found {
		writeError(w, http.StatusNotFound, "Page not found")
		return
	}
	writeJSON(w, http.StatusOK, reviews.RevisionsResponse{PageID: pageID, Revisions: revs})
}

func (s *Server) handleAutoreview(w http.ResponseWriter, r *http.Request) {
	wiki := wikiFrom(r)
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	if !s.admit(w, r, OpAutoreview, wiki.ID, pageID) {
		return
	}
	revs, found := s.revisionsFor(wiki.ID, pageID)
	if !found {
		writeError(w, http.StatusNotFound, "Page not found")
		return
	}
	cfg, _ := s.Configuration(wiki.ID)
	writeJSON(w, http.StatusOK, reviews.AutoreviewResponse{
		Mode:    "dry-run",
		Results: evaluate(revs, cfg),
	})
}

// revisionsFor returns the seeded revisions of a page, falling back to the
// revisions embedded in its pending entry.
func (s *Server) revisionsFor(wiki reviews.WikiID, pageID int64) ([]reviews.Revision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := wiki.String()
	if revs, ok := s.revisions[key][pageID]; ok {
		return append([]reviews.Revision{}, revs...), true
	}
	for _, p := range s.upstream[key] {
		if p.PageID == pageID {
			return append([]reviews.Revision{}, p.Revisions...), true
		}
	}
	return nil, false
}

func (s *Server) lookupFaultLocked(t Target) (Fault, bool) {
	for _, key := range candidates(t) {
		if f, ok := s.faults[key]; ok {
			return f, true
		}
	}
	return Fault{}, false
}

func (s *Server) lookupHoldLocked(t Target) chan struct{} {
	for _, key := range candidates(t) {
		if gate, ok := s.holds[key]; ok {
			return gate
		}
	}
	return nil
}

// normalizeTarget maps the wiki of t onto the seeded wiki's canonical id.
func (s *Server) normalizeTarget(t Target) Target {
	if !t.Wiki.IsZero() {
		t.Wiki = reviews.WikiID(s.keyLocked(t.Wiki))
	}
	return t
}

func (s *Server) keyLocked(wiki reviews.WikiID) string {
	for _, w := range s.wikis {
		if w.ID.Matches(wiki) {
			return w.ID.String()
		}
	}
	return wiki.String()
}

func candidates(t Target) []Target {
	return []Target{
		t,
		{Op: t.Op, Wiki: t.Wiki},
		{Op: t.Op},
	}
}

func pageParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "page"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Page not found")
		return 0, false
	}
	return id, true
}

func normalizeConfiguration(cfg reviews.Configuration) reviews.Configuration {
	if cfg.BlockingCategories == nil {
		cfg.BlockingCategories = []string{}
	}
	if cfg.AutoApprovedGroups == nil {
		cfg.AutoApprovedGroups = []string{}
	}
	return cfg
}

func clonePages(pages []reviews.Page) []reviews.Page {
	if pages == nil {
		return nil
	}
	dup := make([]reviews.Page, len(pages))
	for i, p := range pages {
		dup[i] = p.Clone()
	}
	return dup
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
