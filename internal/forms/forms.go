// Package forms converts wiki configuration lists to and from the free-form
// multi-line text the operator edits.
package forms

import (
	"strings"

	"github.com/five82/reviewdeck/internal/reviews"
)

// Forms holds the two editable text blocks of the configuration panel.
type Forms struct {
	BlockingCategories string
	AutoApprovedGroups string
}

// FromConfiguration renders cfg as one entry per line.
func FromConfiguration(cfg reviews.Configuration) Forms {
	return Forms{
		BlockingCategories: JoinLines(cfg.BlockingCategories),
		AutoApprovedGroups: JoinLines(cfg.AutoApprovedGroups),
	}
}

// Configuration parses both text blocks back into a configuration.
func (f Forms) Configuration() reviews.Configuration {
	return reviews.Configuration{
		BlockingCategories: ParseLines(f.BlockingCategories),
		AutoApprovedGroups: ParseLines(f.AutoApprovedGroups),
	}
}

// ParseLines splits text on newlines, trims every line and drops blanks.
// The result is never nil.
func ParseLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JoinLines joins entries with newlines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
