package model

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures. Callers match them with errors.Is; the returned
// errors carry the offending event and date as context.
var (
	ErrNoEvents    = errors.New("no events")
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidYear = errors.New("invalid year")
)

// Input is the calendar description read from disk.
type Input struct {
	// Year is the calendar year every event date belongs to.
	Year int `json:"year" yaml:"year"`
	// Title is used both as the page title and the calendar heading.
	Title string `json:"title" yaml:"title"`
	// Events are kept in file order; the order decides which event wins
	// when two of them share a day.
	Events []Event `json:"events" yaml:"events"`
}

// Event is a named activity and the days it takes place on.
type Event struct {
	Name  string `json:"name" yaml:"name"`
	Dates []Date `json:"dates" yaml:"dates"`
}

// Date lists days of a single month.
type Date struct {
	Month int   `json:"month" yaml:"month"`
	Days  []int `json:"days" yaml:"days"`
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDate reports whether (month, day) is a real calendar date in year.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysIn(year, time.Month(month))
}

// Validate checks everything the schedule builder relies on:
// a positive year, at least one event date, and real calendar dates.
func (in Input) Validate() error {
	if in.Year < 1 || in.Year > 9999 {
		return fmt.Errorf("model: year %d: %w", in.Year, ErrInvalidYear)
	}
	return ValidateEvents(in.Year, in.Events)
}

// ValidateEvents checks that events reference at least one month and that
// every (month, day) pair exists in year. A month entry without days still
// counts: it widens the calendar range without marking anything.
func ValidateEvents(year int, events []Event) error {
	months := 0
	for i, ev := range events {
		for _, d := range ev.Dates {
			if d.Month < 1 || d.Month > 12 {
				return fmt.Errorf("model: event %d (%q): month %d: %w", i, ev.Name, d.Month, ErrInvalidDate)
			}
			for _, day := range d.Days {
				if !ValidDate(year, d.Month, day) {
					return fmt.Errorf("model: event %d (%q): %04d-%02d-%02d: %w",
						i, ev.Name, year, d.Month, day, ErrInvalidDate)
				}
			}
			months++
		}
	}
	if months == 0 {
		return fmt.Errorf("model: %d events reference no dates: %w", len(events), ErrNoEvents)
	}
	return nil
}
