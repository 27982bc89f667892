// Package report turns evaluation results into the bounded digests the hooks
// print and the styled views the CLI shows. Nothing here does I/O.
package report

import (
	"fmt"
	"strings"

	"github.com/kingrea/secondbrain/internal/freshness"
)

const (
	// DetailLimit bounds the details carried in the structured payload.
	DetailLimit = 10
	// InlineLimit bounds the items rendered in the text digest.
	InlineLimit = 5

	fullReportHint = "Run `/secondbrain-freshness` for full report."
)

// FreshnessPayload is the machine-readable form of a freshness digest.
type FreshnessPayload struct {
	Message    string           `json:"message"`
	Details    []freshness.Item `json:"details"`
	TotalStale int              `json:"total_stale"`
}

// FreshnessDigest pairs the text digest with its payload.
type FreshnessDigest struct {
	Text    string
	Payload FreshnessPayload
}

// Freshness renders the stale items. It returns false when there is nothing
// to report.
func Freshness(items []freshness.Item) (FreshnessDigest, bool) {
	total := len(items)
	if total == 0 {
		return FreshnessDigest{}, false
	}
	inline := items
	if len(inline) > InlineLimit {
		inline = inline[:InlineLimit]
	}

	lines := []string{
		fmt.Sprintf("**Secondbrain Freshness:** %d item(s) may need review:", total),
		"",
	}
	for _, item := range inline {
		lines = append(lines, ItemLine(item))
	}
	if total > InlineLimit {
		lines = append(lines, fmt.Sprintf("- ... and %d more", total-InlineLimit))
	}
	lines = append(lines, "", fullReportHint)

	return FreshnessDigest{
		Text:    strings.Join(lines, "\n"),
		Payload: NewPayload(items, DetailLimit),
	}, true
}

// NewPayload builds the structured payload carrying at most limit details.
// A limit of zero or less keeps every item.
func NewPayload(items []freshness.Item, limit int) FreshnessPayload {
	details := items
	if limit > 0 && len(details) > limit {
		details = details[:limit]
	}
	return FreshnessPayload{
		Message:    fmt.Sprintf("Secondbrain Freshness Alert: %d item(s) need attention", len(items)),
		Details:    append([]freshness.Item{}, details...),
		TotalStale: len(items),
	}
}

// ItemLine renders `- [entity] id: title (status: s) — N days old`.
func ItemLine(item freshness.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s", item.Entity, item.ID)
	if item.Title != "" {
		fmt.Fprintf(&b, ": %s", item.Title)
	}
	if item.Status != "" {
		fmt.Fprintf(&b, " (status: %s)", item.Status)
	}
	fmt.Fprintf(&b, " — %d days old", item.DaysOld)
	return b.String()
}
