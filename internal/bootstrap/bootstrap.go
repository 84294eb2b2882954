// Package bootstrap supplies the initial wiki list.
package bootstrap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/five82/reviewdeck/internal/reviews"
)

//go:embed wikis.json
var embedded []byte

// Load returns the wikis from path, or the embedded list when path is empty.
func Load(path string) ([]reviews.Wiki, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wikis file: %w", err)
	}
	wikis, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wikis, nil
}

// Parse decodes a wiki list given either as a bare array or as
// {"wikis": [...]}. Ids must be present and distinct.
func Parse(data []byte) ([]reviews.Wiki, error) {
	trimmed := bytes.TrimSpace(data)
	var wikis []reviews.Wiki
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wikis); err != nil {
			return nil, fmt.Errorf("parse wikis: %w", err)
		}
	} else {
		var resp reviews.WikiListResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, fmt.Errorf("parse wikis: %w", err)
		}
		wikis = resp.Wikis
	}

	for i, w := range wikis {
		if w.ID.IsZero() {
			return nil, fmt.Errorf("wiki %d has no id", i)
		}
		for _, prev := range wikis[:i] {
			if prev.ID.Matches(w.ID) {
				return nil, fmt.Errorf("duplicate wiki id %s", w.ID)
			}
		}
	}
	return wikis, nil
}
