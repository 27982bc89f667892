// Package activity finds the most recent record of each entity.
package activity

import (
	"fmt"
	"sort"
	"time"

	"github.com/kingrea/secondbrain/internal/record"
	"github.com/kingrea/secondbrain/internal/store"
)

// DefaultLimit caps how many entities a summary lists.
const DefaultLimit = 5

// Summary is the most recent record of one entity.
type Summary struct {
	Entity   string    `json:"entity"`
	Singular string    `json:"singular"`
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     string    `json:"date"`
	When     time.Time `json:"-"`
}

// String renders `singular: "title" (date)`.
func (s Summary) String() string {
	return fmt.Sprintf("%s: \"%s\" (%s)", s.Singular, s.Title, s.Date)
}

// Line renders the summary as it appears in the session digest.
func (s Summary) Line() string {
	return "Last " + s.String()
}

// Latest returns the record of set with the greatest resolved date. When
// several records share that date the first one in storage order wins.
func Latest(set store.EntityRecords) (Summary, bool) {
	var (
		best  Summary
		found bool
	)
	for _, rec := range set.Records {
		field, err := rec.ResolveDate()
		if err != nil {
			continue
		}
		if found && !field.Date.After(best.When) {
			continue
		}
		title := rec.DisplayTitle()
		if title == "" {
			title = record.Unknown
		}
		best = Summary{
			Entity:   set.Entity.Name,
			Singular: set.Entity.Singular,
			ID:       rec.Identity(),
			Title:    title,
			Date:     field.String(),
			When:     field.Date,
		}
		found = true
	}
	return best, found
}

// Summarize returns at most limit summaries, one per enabled entity with a
// dated record, most recent first. Entities whose latest records share a date
// keep their configuration order. A limit below one means DefaultLimit.
func Summarize(sets []store.EntityRecords, limit int) []Summary {
	if limit < 1 {
		limit = DefaultLimit
	}
	var out []Summary
	for _, set := range sets {
		if !set.Entity.Enabled {
			continue
		}
		if summary, ok := Latest(set); ok {
			out = append(out, summary)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].When.After(out[j].When)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
