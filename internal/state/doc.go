// Package state holds the dashboard's application state.
//
// A single Store owns the wiki list, the selection, the sort policy, the
// pending pages, the loading indicator, the error slot, and the
// configuration panel. Everything else reads copies through Snapshot and
// learns about changes through Subscribe.
//
// # Staleness
//
// Fetches complete out of order. Every sync takes a generation from
// BeginSync and hands it back to CommitPages; the store accepts the commit
// only when no newer sync, selection change, or ClearPages has happened
// since, and the wiki is still the selected one. Late results are dropped
// silently.
//
// # Loading
//
// Loading is a counter of in-flight operations exposed as a boolean.
// BeginOp increments it and the returned function decrements it, so one
// request finishing does not hide the indicator while another is running.
//
// # Notifications
//
// Subscribe hands out a buffered channel of capacity one. Bursts of
// mutations collapse into a single pending signal; consumers re-read the
// snapshot when woken.
//
// # Views
//
// Derived values (current wiki, visible pages, has-more) are pure functions
// of a Snapshot and live in view.go.
package state
