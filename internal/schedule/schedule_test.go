package schedule

import (
	"errors"
	"testing"
	"time"

	"yearcal/internal/model"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSingleMonth(t *testing.T) {
	events := []model.Event{{Name: "E1", Dates: []model.Date{{Month: 1, Days: []int{1}}}}}

	entries, err := Build(2024, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(entries) != 31 {
		t.Fatalf("expected 31 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if !e.Date.Equal(day(2024, time.January, i+1)) {
			t.Fatalf("entry %d has date %s", i, e.Date)
		}
		idx, ok := e.EventIndex()
		if i == 0 {
			if !ok || idx != 0 {
				t.Fatalf("January 1 should carry event 0, got (%d, %v)", idx, ok)
			}
			continue
		}
		if ok {
			t.Fatalf("day %d should have no event, got %d", i+1, idx)
		}
	}
}

func TestBuildCoversMonthRangeWithoutGaps(t *testing.T) {
	events := []model.Event{
		{Name: "late", Dates: []model.Date{{Month: 5, Days: []int{20}}}},
		{Name: "early", Dates: []model.Date{{Month: 2, Days: []int{3}}}},
	}

	entries, err := Build(2024, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	first, last := day(2024, time.February, 1), day(2024, time.May, 31)
	if !entries[0].Date.Equal(first) || !entries[len(entries)-1].Date.Equal(last) {
		t.Fatalf("range %s..%s, want %s..%s", entries[0].Date, entries[len(entries)-1].Date, first, last)
	}
	// Feb (leap) 29 + Mar 31 + Apr 30 + May 31
	if len(entries) != 121 {
		t.Fatalf("expected 121 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if got := entries[i].Date.Sub(entries[i-1].Date); got != 24*time.Hour {
			t.Fatalf("gap of %s between %s and %s", got, entries[i-1].Date, entries[i].Date)
		}
	}

	marked := map[time.Time]int{}
	for _, e := range entries {
		if idx, ok := e.EventIndex(); ok {
			marked[e.Date] = idx
		}
	}
	if len(marked) != 2 || marked[day(2024, time.May, 20)] != 0 || marked[day(2024, time.February, 3)] != 1 {
		t.Fatalf("unexpected marks: %v", marked)
	}
}

func TestBuildLaterEventWins(t *testing.T) {
	events := []model.Event{
		{Name: "A", Dates: []model.Date{{Month: 3, Days: []int{5}}}},
		{Name: "B", Dates: []model.Date{{Month: 3, Days: []int{5}}}},
	}

	entries, err := Build(2024, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := entries[4]
	if !got.Date.Equal(day(2024, time.March, 5)) {
		t.Fatalf("entry 4 is %s", got.Date)
	}
	if idx, ok := got.EventIndex(); !ok || idx != 1 {
		t.Fatalf("March 5 should carry event 1, got (%d, %v)", idx, ok)
	}
}

func TestBuildDecemberEndsOnNewYearsEve(t *testing.T) {
	events := []model.Event{{Name: "NYE", Dates: []model.Date{{Month: 12, Days: []int{31}}}}}

	entries, err := Build(2023, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(entries) != 31 {
		t.Fatalf("expected 31 entries, got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if !last.Date.Equal(day(2023, time.December, 31)) {
		t.Fatalf("last entry %s", last.Date)
	}
	if idx, ok := last.EventIndex(); !ok || idx != 0 {
		t.Fatalf("December 31 should carry event 0")
	}
}

func TestBuildFullYear(t *testing.T) {
	events := []model.Event{{Name: "E", Dates: []model.Date{{Month: 1, Days: []int{1}}, {Month: 12, Days: []int{25}}}}}

	entries, err := Build(2024, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(entries) != 366 {
		t.Fatalf("expected 366 entries for a leap year, got %d", len(entries))
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(2024, nil); !errors.Is(err, model.ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
	bad := []model.Event{{Name: "E", Dates: []model.Date{{Month: 2, Days: []int{30}}}}}
	if _, err := Build(2024, bad); !errors.Is(err, model.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestGroupByMonth(t *testing.T) {
	events := []model.Event{{Name: "E", Dates: []model.Date{{Month: 1, Days: []int{31}}, {Month: 3, Days: []int{1}}}}}
	entries, err := Build(2023, events)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	groups := GroupByMonth(entries)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantLen := []int{31, 28, 31}
	wantMonth := []time.Month{time.January, time.February, time.March}
	for i, g := range groups {
		if len(g) != wantLen[i] {
			t.Errorf("group %d has %d days, want %d", i, len(g), wantLen[i])
		}
		for _, e := range g {
			if e.Date.Month() != wantMonth[i] {
				t.Errorf("group %d contains %s", i, e.Date)
			}
		}
	}

	if got := GroupByMonth(nil); len(got) != 0 {
		t.Fatalf("expected no groups for empty schedule, got %d", len(got))
	}
}
