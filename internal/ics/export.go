package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"yearcal/internal/model"
	"yearcal/internal/schedule"
)

// ProductID identifies generated calendars.
const ProductID = "-//yearcal//yearcal//EN"

// Export converts the marked days of a schedule into an iCalendar document
// with one all-day VEVENT per day. Only the event that won a day is
// exported, matching what the HTML calendar shows.
func Export(in model.Input, entries []schedule.Entry, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(in.Title)

	for _, e := range entries {
		idx, ok := e.EventIndex()
		if !ok || idx >= len(in.Events) {
			continue
		}
		uid := fmt.Sprintf("%s-%d@yearcal", e.Date.Format("20060102"), idx)
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(in.Events[idx].Name)
		ev.SetAllDayStartAt(e.Date)
		ev.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
	}

	return cal.Serialize()
}
