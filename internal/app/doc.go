// Package app wires reviewdeck together and runs its operations.
//
// # Components
//
//   - app.go: composition root. New builds the store, preferences, API
//     client and engine from configuration; Run starts the poller and the
//     dashboard.
//   - engine.go: the operations behind every key press and CLI command
//     (Sync, Refresh, ClearCache, SelectWiki, SetSortOrder, configuration
//     edits, autoreview).
//   - backfill.go: concurrent revision fetches for pages that arrive
//     without revisions.
//   - poller.go: optional periodic resync with exponential backoff.
//
// # Sync
//
//	Sync(id)
//	  ├─ id empty ──────────────> ClearPages, done
//	  ├─ gen := BeginSync, BeginOp
//	  ├─ FetchPending ── error ─> FailPages(gen, msg) (only if still current)
//	  ├─ Backfill (errgroup, bounded)
//	  └─ CommitPages(gen, sorted with the order at commit time)
//	       └─ dropped silently when a newer sync, selection or clear won
//
// Every API call clears the store's error slot when it starts and fills it
// when it fails; revision fetches during backfill are the exception and
// never touch it.
package app
