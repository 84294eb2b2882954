package stubserver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/five82/reviewdeck/internal/reviews"
)

// Decision statuses reported by the dry-run evaluator.
const (
	StatusApprove = "approve"
	StatusBlocked = "blocked"
	StatusManual  = "manual"
)

// evaluate runs the dry-run checks on revisions, oldest first: bot editors
// and allow-listed groups approve; blocking categories block; everything
// else needs a human.
func evaluate(revs []reviews.Revision, cfg reviews.Configuration) []reviews.RevisionVerdict {
	sorted := slices.Clone(revs)
	slices.SortStableFunc(sorted, func(a, b reviews.Revision) int {
		if c := a.ParsedTimestamp().Compare(b.ParsedTimestamp()); c != 0 {
			return c
		}
		switch {
		case a.RevID < b.RevID:
			return -1
		case a.RevID > b.RevID:
			return 1
		}
		return 0
	})

	groups := lookup(cfg.AutoApprovedGroups)
	blocking := lookup(cfg.BlockingCategories)

	out := make([]reviews.RevisionVerdict, 0, len(sorted))
	for _, rev := range sorted {
		tests, decision := evaluateOne(rev, groups, blocking)
		out = append(out, reviews.RevisionVerdict{RevID: rev.RevID, Tests: tests, Decision: decision})
	}
	return out
}

func evaluateOne(rev reviews.Revision, groups, blocking map[string]string) ([]reviews.CheckResult, reviews.Decision) {
	profile := rev.EditorProfile
	if profile == nil {
		profile = &reviews.EditorProfile{}
	}
	approve := func(reason string) reviews.Decision {
		return reviews.Decision{Status: StatusApprove, Label: "Would be auto-approved", Reason: reason}
	}

	var tests []reviews.CheckResult
	if profile.IsBot || hasFold(profile.Usergroups, "bot") {
		tests = append(tests, check("bot-user", "Bot user", true, "The edit could be auto-approved because the user is a bot."))
		return tests, approve("The user is recognized as a bot.")
	}
	tests = append(tests, check("bot-user", "Bot user", false, "The user is not marked as a bot."))

	if len(groups) > 0 {
		var matched []string
		for _, g := range profile.Usergroups {
			if name, ok := groups[strings.ToLower(g)]; ok && !slices.Contains(matched, name) {
				matched = append(matched, name)
			}
		}
		if len(matched) > 0 {
			slices.Sort(matched)
			tests = append(tests, check("auto-approved-group", "Auto-approved groups", true,
				fmt.Sprintf("The user belongs to groups: %s.", strings.Join(matched, ", "))))
			return tests, approve("The user belongs to groups that are auto-approved.")
		}
		tests = append(tests, check("auto-approved-group", "Auto-approved groups", false, "The user does not belong to auto-approved groups."))
	} else {
		var rights []string
		if profile.IsAutopatrolled {
			rights = append(rights, "Autopatrolled")
		}
		if profile.IsAutoreviewed {
			rights = append(rights, "Autoreviewed")
		}
		if len(rights) > 0 {
			tests = append(tests, check("auto-approved-group", "Auto-approved groups", true,
				fmt.Sprintf("The user has default auto-approval rights: %s.", strings.Join(rights, ", "))))
			return tests, approve("The user has default rights that allow auto-approval.")
		}
		tests = append(tests, check("auto-approved-group", "Auto-approved groups", false, "The user does not have default auto-approval rights."))
	}

	var hits []string
	for _, c := range rev.Categories {
		if name, ok := blocking[strings.ToLower(c)]; ok && !slices.Contains(hits, name) {
			hits = append(hits, name)
		}
	}
	if len(hits) > 0 {
		slices.Sort(hits)
		tests = append(tests, check("blocking-categories", "Blocking categories", false,
			fmt.Sprintf("The previous version belongs to blocking categories: %s.", strings.Join(hits, ", "))))
		return tests, reviews.Decision{
			Status: StatusBlocked,
			Label:  "Cannot be auto-approved",
			Reason: "The earlier version of the article is in blocking categories.",
		}
	}
	tests = append(tests, check("blocking-categories", "Blocking categories", true, "The previous version is not in blocking categories."))

	return tests, reviews.Decision{
		Status: StatusManual,
		Label:  "Requires human review",
		Reason: "In dry-run mode the edit would not be approved automatically.",
	}
}

func check(id, title string, passed bool, message string) reviews.CheckResult {
	status := "failed"
	if passed {
		status = "passed"
	}
	return reviews.CheckResult{ID: id, Title: title, Status: status, Message: message}
}

func lookup(values []string) map[string]string {
	out := make(map[string]string, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out[strings.ToLower(v)] = v
		}
	}
	return out
}

func hasFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
