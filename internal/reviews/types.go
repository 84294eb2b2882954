package reviews

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WikiID identifies a wiki. The backend emits numeric primary keys while
// persisted preferences hold strings, so decoding accepts both.
type WikiID string

// UnmarshalJSON accepts a JSON number or string.
func (id *WikiID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = WikiID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("wiki id: %w", err)
	}
	*id = WikiID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so they round-trip with the backend.
func (id WikiID) MarshalJSON() ([]byte, error) {
	if n, ok := id.numeric(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// String returns the raw identifier.
func (id WikiID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id WikiID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Matches reports whether two ids refer to the same wiki, either by raw
// string equality or by numeric equality ("07" matches "7").
func (id WikiID) Matches(other WikiID) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	if strings.TrimSpace(string(id)) == strings.TrimSpace(string(other)) {
		return true
	}
	a, okA := id.numeric()
	b, okB := other.numeric()
	return okA && okB && a == b
}

func (id WikiID) numeric() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(id)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Wiki is a configured wiki site.
type Wiki struct {
	ID            WikiID        `json:"id"`
	Name          string        `json:"name,omitempty"`
	Code          string        `json:"code,omitempty"`
	APIEndpoint   string        `json:"api_endpoint"`
	Configuration Configuration `json:"configuration"`
}

// Label returns a short human label for the wiki.
func (w Wiki) Label() string {
	switch {
	case strings.TrimSpace(w.Code) != "":
		return w.Code
	case strings.TrimSpace(w.Name) != "":
		return w.Name
	default:
		return "#" + w.ID.String()
	}
}

// Configuration holds the per-wiki moderation rules.
type Configuration struct {
	BlockingCategories []string `json:"blocking_categories"`
	AutoApprovedGroups []string `json:"auto_approved_groups"`
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	return Configuration{
		BlockingCategories: cloneStrings(c.BlockingCategories),
		AutoApprovedGroups: cloneStrings(c.AutoApprovedGroups),
	}
}

// WikiListResponse mirrors /api/wikis/.
type WikiListResponse struct {
	Wikis []Wiki `json:"wikis"`
}

// PendingResponse mirrors /api/wikis/{id}/pending/.
type PendingResponse struct {
	Pages []Page `json:"pages"`
}

// RevisionsResponse mirrors /api/wikis/{id}/pages/{pageid}/revisions/.
type RevisionsResponse struct {
	PageID    int64      `json:"pageid,omitempty"`
	Revisions []Revision `json:"revisions"`
}

// Page is a wiki page with at least one unreviewed revision.
type Page struct {
	PageID       int64      `json:"pageid"`
	Title        string     `json:"title"`
	PendingSince string     `json:"pending_since,omitempty"`
	StableRevID  int64      `json:"stable_revid,omitempty"`
	Revisions    []Revision `json:"revisions,omitempty"`

	// RevisionsFailed is set client-side when revisions could not be
	// backfilled, so an empty list is not mistaken for "no revisions".
	RevisionsFailed bool `json:"-"`
}

// PendingTime returns the parsed pending timestamp, or the zero time when
// it is absent or malformed.
func (p Page) PendingTime() time.Time {
	return parseTime(p.PendingSince)
}

// Clone returns a copy whose revision slice is not shared.
func (p Page) Clone() Page {
	dup := p
	if p.Revisions != nil {
		dup.Revisions = make([]Revision, len(p.Revisions))
		copy(dup.Revisions, p.Revisions)
	}
	return dup
}

// Revision is a pending revision as cached by the backend.
type Revision struct {
	RevID         int64          `json:"revid"`
	ParentID      int64          `json:"parentid,omitempty"`
	UserName      string         `json:"user_name,omitempty"`
	UserID        int64          `json:"user_id,omitempty"`
	Timestamp     string         `json:"timestamp,omitempty"`
	Comment       string         `json:"comment,omitempty"`
	ChangeTags    []string       `json:"change_tags,omitempty"`
	Categories    []string       `json:"categories,omitempty"`
	EditorProfile *EditorProfile `json:"editor_profile,omitempty"`
}

// ParsedTimestamp returns the revision timestamp as time.Time when possible.
func (r Revision) ParsedTimestamp() time.Time {
	return parseTime(r.Timestamp)
}

// EditorProfile describes the editor of a revision.
type EditorProfile struct {
	Usergroups      []string `json:"usergroups,omitempty"`
	IsBlocked       bool     `json:"is_blocked"`
	IsBot           bool     `json:"is_bot"`
	IsAutopatrolled bool     `json:"is_autopatrolled"`
	IsAutoreviewed  bool     `json:"is_autoreviewed"`
}

// AutoreviewResponse mirrors /api/wikis/{id}/pages/{pageid}/autoreview/.
type AutoreviewResponse struct {
	Mode    string            `json:"mode"`
	Results []RevisionVerdict `json:"results"`
}

// RevisionVerdict is the dry-run outcome for a single revision.
type RevisionVerdict struct {
	RevID    int64         `json:"revid"`
	Tests    []CheckResult `json:"tests"`
	Decision Decision      `json:"decision"`
}

// CheckResult is one autoreview check.
type CheckResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Decision aggregates the checks of a revision.
type Decision struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	dup := make([]string, len(values))
	copy(dup, values)
	return dup
}
