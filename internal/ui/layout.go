package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which the detail pane stacks
	// under the page table.
	LayoutCompactWidth = 100

	// LayoutEditorWidth is the minimum width to show the last editor column.
	LayoutEditorWidth = 120
)

// Activity log limits.
const (
	// LogBufferLimit is the maximum number of log lines read from the tail.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is how often the activity view rereads the log and
	// relative ages are re-rendered.
	DefaultUIInterval = time.Second
)

// Configuration panel dimensions.
const (
	configFieldHeight = 5
	configPanelHeight = configFieldHeight + 4
)
