// Package schedule expands a year's events into one entry per calendar day.
package schedule

import (
	"fmt"
	"time"

	"yearcal/internal/model"
)

// Entry is one calendar day and the event, if any, that occupies it.
type Entry struct {
	Date     time.Time
	Event    int
	HasEvent bool
}

// EventIndex returns the index of the event on this day, if there is one.
func (e Entry) EventIndex() (int, bool) {
	return e.Event, e.HasEvent
}

// Build returns one entry per day from the first day of the earliest month
// referenced by events to the last day of the latest one, in ascending order.
//
// Events are applied in slice order, so when two events share a day the one
// with the higher index wins. Dates are validated up front; an empty event
// list yields model.ErrNoEvents and an impossible date model.ErrInvalidDate.
func Build(year int, events []model.Event) ([]Entry, error) {
	if err := model.ValidateEvents(year, events); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	minMonth, maxMonth := monthRange(events)

	start := time.Date(year, time.Month(minMonth), 1, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes month 13 to January of the next year, so the
	// exclusive end of a December range is January 1st of year+1.
	end := time.Date(year, time.Month(maxMonth)+1, 1, 0, 0, 0, 0, time.UTC)

	entries := make([]Entry, 0, int(end.Sub(start).Hours()/24))
	index := make(map[time.Time]int, cap(entries))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		index[d] = len(entries)
		entries = append(entries, Entry{Date: d})
	}

	for i, ev := range events {
		for _, d := range ev.Dates {
			for _, day := range d.Days {
				date := time.Date(year, time.Month(d.Month), day, 0, 0, 0, 0, time.UTC)
				pos, ok := index[date]
				if !ok {
					// Unreachable after validation: every event date lies inside the range.
					return nil, fmt.Errorf("schedule: %s outside %s..%s", date.Format(time.DateOnly),
						start.Format(time.DateOnly), end.AddDate(0, 0, -1).Format(time.DateOnly))
				}
				entries[pos].Event = i
				entries[pos].HasEvent = true
			}
		}
	}

	return entries, nil
}

// monthRange returns the smallest and largest month referenced by events.
func monthRange(events []model.Event) (minMonth, maxMonth int) {
	minMonth, maxMonth = 13, 0
	for _, ev := range events {
		for _, d := range ev.Dates {
			minMonth = min(minMonth, d.Month)
			maxMonth = max(maxMonth, d.Month)
		}
	}
	return minMonth, maxMonth
}

// GroupByMonth splits a day-ordered schedule into runs that share a month.
// A new group starts whenever the month differs from the previous day's.
func GroupByMonth(entries []Entry) [][]Entry {
	var groups [][]Entry
	start := 0
	for i := 1; i <= len(entries); i++ {
		if i == len(entries) || entries[i].Date.Month() != entries[i-1].Date.Month() {
			groups = append(groups, entries[start:i])
			start = i
		}
	}
	return groups
}
