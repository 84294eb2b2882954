// Package ui implements the reviewdeck terminal dashboard on Bubble Tea.
//
// The Model never mutates application state itself. Key presses become
// calls on an Engine, run as tea.Cmds off the event loop, and the Model
// re-renders when the state.Store signals a change through its
// subscription channel. Rendering always works from a state.Snapshot and
// its projected state.View, so the page table shows at most the display
// limit and a count of what is hidden.
//
// # Screens
//
//   - Dashboard: wiki tabs, the pending page table, the revision detail
//     pane and, when open, the configuration panel with one textarea per
//     list.
//   - Activity: the tail of reviewdeck's own JSON log, rendered through
//     logtail.
//   - Overlays: the help sheet and the autoreview verdict modal.
//
// # Key Bindings
//
//   - tab, ], right / shift+tab, [, left: next / previous wiki
//   - j/k, g/G: move through the pages
//   - u: reload pending pages
//   - r: ask the backend to refresh, then reload
//   - c: clear the backend cache
//   - s: cycle sort order (newest, oldest, random)
//   - a: autoreview dry-run for the selected page
//   - o: toggle the configuration panel; i: edit it; ctrl+s: save
//   - l: activity log; esc: back
//   - T: cycle theme; h/?: help; e or ctrl+c: quit
package ui
