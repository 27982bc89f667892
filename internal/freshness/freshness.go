// Package freshness classifies secondbrain records as stale, active or closed
// and produces the staleness list consumed by the reports.
package freshness

import (
	"errors"
	"sort"
	"time"

	"github.com/kingrea/secondbrain/internal/record"
	"github.com/kingrea/secondbrain/internal/store"
)

// State is the classification of one record.
type State string

const (
	StateActive  State = "active"
	StateStale   State = "stale"
	StateClosed  State = "closed"
	StateUndated State = "undated"
)

// Item is one stale record.
type Item struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Status  string `json:"status,omitempty"`
	Date    string `json:"date"`
	DaysOld int    `json:"days_old"`
}

// Result is the complete, untruncated evaluation.
type Result struct {
	// Items is sorted by DaysOld descending; ties keep storage order.
	Items []Item
	// Skipped lists records whose date could not be resolved or parsed.
	Skipped []store.Skip
}

// Classify returns the state of rec under the entity's policy at now, with
// the resolved date age when the record is dated.
func Classify(set store.EntityRecords, rec record.Record, now time.Time) (State, int, error) {
	field, err := rec.ResolveDate()
	if err != nil {
		return StateUndated, 0, err
	}
	days := record.DaysBetween(field.Date, now)
	if set.Entity.IsClosed(rec.Status()) {
		return StateClosed, days, nil
	}
	if days > set.Entity.StaleAfter() {
		return StateStale, days, nil
	}
	return StateActive, days, nil
}

// Evaluate walks every enabled entity and returns its stale records. Closed
// records are never stale; a record exactly at the threshold is not stale.
func Evaluate(sets []store.EntityRecords, now time.Time) Result {
	var res Result
	for _, set := range sets {
		if !set.Entity.Enabled {
			continue
		}
		for i, rec := range set.Records {
			state, days, err := Classify(set, rec, now)
			switch state {
			case StateUndated:
				reason := "no date field"
				if !errors.Is(err, record.ErrNoDate) {
					reason = err.Error()
				}
				res.Skipped = append(res.Skipped, store.Skip{
					Entity: set.Entity.Name, Index: i, Reason: reason,
				})
			case StateStale:
				field, _ := rec.ResolveDate()
				res.Items = append(res.Items, Item{
					Entity:  set.Entity.Name,
					ID:      rec.Identity(),
					Title:   rec.Title(),
					Status:  rec.Status(),
					Date:    field.String(),
					DaysOld: days,
				})
			}
		}
	}
	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].DaysOld > res.Items[j].DaysOld
	})
	return res
}

// Stat counts one entity's records.
type Stat struct {
	Entity string `json:"entity"`
	Total  int    `json:"total"`
	Active int    `json:"active"`
}

// Count returns record totals per enabled entity. A record is active when its
// status is not in the entity's closed set; dates play no part.
func Count(sets []store.EntityRecords) []Stat {
	var out []Stat
	for _, set := range sets {
		if !set.Entity.Enabled {
			continue
		}
		stat := Stat{Entity: set.Entity.Name, Total: len(set.Records)}
		for _, rec := range set.Records {
			if !set.Entity.IsClosed(rec.Status()) {
				stat.Active++
			}
		}
		out = append(out, stat)
	}
	return out
}
