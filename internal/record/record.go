// Package record models a loosely-typed secondbrain record and the policy
// tables used to read identity, title, status and date out of it.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted textual date form.
const DateLayout = "2006-01-02"

// Unknown is the identity reported for records with no identity field.
const Unknown = "Unknown"

// Key lists are checked in order; the first present value wins.
var (
	IdentityKeys = []string{"id", "number", "title", "topic"}
	TitleKeys    = []string{"title", "topic", "id"}
	DateKeys     = []string{"created", "date", "date_created", "date_updated"}
)

var (
	// ErrNoDate means none of DateKeys carried a value.
	ErrNoDate = errors.New("record: no date field")
	// ErrBadDate means the resolved date field could not be parsed.
	ErrBadDate = errors.New("record: unparseable date")
)

// Record is a single entry as decoded from storage.
type Record map[string]any

// Lookup returns the first key in keys whose value is present. Nil values and
// blank strings count as absent.
func (r Record) Lookup(keys []string) (string, any, bool) {
	for _, key := range keys {
		value, ok := r[key]
		if !ok || isBlank(value) {
			continue
		}
		return key, value, true
	}
	return "", nil, false
}

// Text returns the first present value among keys rendered as a string.
func (r Record) Text(keys []string) string {
	_, value, ok := r.Lookup(keys)
	if !ok {
		return ""
	}
	return Stringify(value)
}

// Identity resolves id, number, title, topic in that order.
func (r Record) Identity() string {
	if id := r.Text(IdentityKeys); id != "" {
		return id
	}
	return Unknown
}

// Title returns the record's title field only.
func (r Record) Title() string {
	return r.Text([]string{"title"})
}

// DisplayTitle resolves title, topic, id in that order.
func (r Record) DisplayTitle() string {
	return r.Text(TitleKeys)
}

// Status returns the case-folded status, or "" when unset.
func (r Record) Status() string {
	return NormalizeStatus(r.Text([]string{"status"}))
}

// DateField is the outcome of resolving a record's date.
type DateField struct {
	Key  string
	Raw  string
	Date time.Time
}

// String renders the resolved date as YYYY-MM-DD.
func (d DateField) String() string {
	return d.Date.Format(DateLayout)
}

// ResolveDate walks DateKeys and parses the first present value. It does not
// fall through to later keys when the first one is malformed.
func (r Record) ResolveDate() (DateField, error) {
	key, value, ok := r.Lookup(DateKeys)
	if !ok {
		return DateField{}, ErrNoDate
	}
	date, err := ParseDate(value)
	if err != nil {
		return DateField{Key: key, Raw: Stringify(value)}, err
	}
	return DateField{Key: key, Raw: Stringify(value), Date: date}, nil
}

// ParseDate accepts a YYYY-MM-DD string or a time.Time and returns the
// calendar date at UTC midnight.
func ParseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return CalendarDate(v), nil
	case string:
		parsed, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, v)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadDate, value)
	}
}

// CalendarDate drops the time-of-day and zone of t, keeping its local date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from date to now.
// It is negative when date lies after now.
func DaysBetween(date, now time.Time) int {
	from := CalendarDate(date)
	to := CalendarDate(now)
	return int(to.Sub(from).Hours() / 24)
}

// NormalizeStatus trims and lower-cases a status value.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// Stringify renders a scalar field value the way it reads in YAML.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return CalendarDate(v).Format(DateLayout)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
