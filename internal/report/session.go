package report

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kingrea/secondbrain/internal/activity"
	"github.com/kingrea/secondbrain/internal/freshness"
)

// AvailableSkills is the closing line of the session digest.
const AvailableSkills = "**Available:** `/secondbrain-adr`, `/secondbrain-note`, `/secondbrain-task`, `/secondbrain-discussion`, `/secondbrain-freshness`"

// SessionInput carries everything the session digest shows.
type SessionInput struct {
	ProjectName string
	Stats       []freshness.Stat
	Recent      []activity.Summary
}

// Session renders the session-start digest: record counts, recent activity
// and the available skills.
func Session(in SessionInput) string {
	lines := []string{fmt.Sprintf("**%s Secondbrain**", in.ProjectName), ""}

	var counts []string
	for _, stat := range in.Stats {
		if stat.Total == 0 {
			continue
		}
		name := TitleCase(stat.Entity)
		if stat.Active < stat.Total {
			counts = append(counts, fmt.Sprintf("- %s: %d active / %d total", name, stat.Active, stat.Total))
		} else {
			counts = append(counts, fmt.Sprintf("- %s: %d", name, stat.Total))
		}
	}
	if len(counts) > 0 {
		lines = append(lines, "**Records:**")
		lines = append(lines, counts...)
		lines = append(lines, "")
	}

	if len(in.Recent) > 0 {
		lines = append(lines, "**Recent:**")
		for _, summary := range in.Recent {
			lines = append(lines, "- "+summary.Line())
		}
		lines = append(lines, "")
	}

	lines = append(lines, AvailableSkills)
	return strings.Join(lines, "\n")
}

// TitleCase upper-cases the first letter of every letter run and lower-cases
// the rest, so "design_docs" becomes "Design_Docs".
func TitleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
