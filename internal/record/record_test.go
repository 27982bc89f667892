package record

import (
	"errors"
	"testing"
	"time"
)

func TestIdentityPriority(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want string
	}{
		{"id wins", Record{"id": "T1", "number": 4, "title": "x"}, "T1"},
		{"number next", Record{"number": 42, "title": "x"}, "42"},
		{"title then", Record{"title": "Write docs", "topic": "docs"}, "Write docs"},
		{"topic last", Record{"topic": "pricing"}, "pricing"},
		{"blank id skipped", Record{"id": "  ", "topic": "pricing"}, "pricing"},
		{"nothing", Record{"status": "open"}, Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.Identity(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDisplayTitleFallsBackToTopicThenID(t *testing.T) {
	if got := (Record{"topic": "roadmap", "id": "N-1"}).DisplayTitle(); got != "roadmap" {
		t.Fatalf("expected topic, got %q", got)
	}
	if got := (Record{"id": "N-1"}).DisplayTitle(); got != "N-1" {
		t.Fatalf("expected id, got %q", got)
	}
}

func TestResolveDateFallbackOrder(t *testing.T) {
	rec := Record{"date_updated": "2024-05-01", "date": "2024-02-03"}
	field, err := rec.ResolveDate()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if field.Key != "date" || field.String() != "2024-02-03" {
		t.Fatalf("unexpected field %+v", field)
	}
}

func TestResolveDateDoesNotFallThroughOnBadValue(t *testing.T) {
	rec := Record{"created": "yesterday", "date": "2024-02-03"}
	field, err := rec.ResolveDate()
	if !errors.Is(err, ErrBadDate) {
		t.Fatalf("expected ErrBadDate, got %v", err)
	}
	if field.Key != "created" {
		t.Fatalf("expected the created key to be reported, got %q", field.Key)
	}
}

func TestResolveDateMissing(t *testing.T) {
	if _, err := (Record{"id": "x"}).ResolveDate(); !errors.Is(err, ErrNoDate) {
		t.Fatalf("expected ErrNoDate, got %v", err)
	}
}

func TestParseDateAcceptsTimeValues(t *testing.T) {
	got, err := ParseDate(time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got.Format(DateLayout) != "2024-01-02" || got.Hour() != 0 {
		t.Fatalf("unexpected date %v", got)
	}
	if _, err := ParseDate(20240102); err == nil {
		t.Fatalf("integers are not dates")
	}
	if _, err := ParseDate("2024-01-02T10:00:00Z"); err == nil {
		t.Fatalf("timestamps are not calendar dates")
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(date, now); got != 60 {
		t.Fatalf("expected 60 days, got %d", got)
	}
	if got := DaysBetween(now, date); got != -60 {
		t.Fatalf("expected -60 days, got %d", got)
	}
}

func TestStatusIsCaseFolded(t *testing.T) {
	if got := (Record{"status": "  Done "}).Status(); got != "done" {
		t.Fatalf("expected done, got %q", got)
	}
	if got := (Record{}).Status(); got != "" {
		t.Fatalf("expected empty status, got %q", got)
	}
}
