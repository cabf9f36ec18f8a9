package ics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls how parsed events are folded into a single year.
type ExpandConfig struct {
	Year int

	// Location decides which calendar day an instant falls on.
	// If nil, time.UTC is used.
	Location *time.Location

	// MaxOccurrencesPerEvent caps RRULE expansion per event. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the events of the year plus the UIDs whose recurrence
// hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// instance is one concrete run of an event.
type instance struct {
	summary    string
	start, end time.Time
}

// Expand turns parsed VEVENTs into calendar events for cfg.Year.
//
// Recurrences are expanded with RRULE/EXDATE, RECURRENCE-ID overrides
// replace the instance they point at, and every day an instance touches is
// marked. Instances are grouped by SUMMARY; the resulting events are ordered
// by their first day, then by name.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.Year < 1 || cfg.Year > 9999 {
		return result, fmt.Errorf("ics: expand year %d: %w", cfg.Year, model.ErrInvalidYear)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	yearStart := time.Date(cfg.Year, time.January, 1, 0, 0, 0, 0, cfg.Location)
	yearEnd := yearStart.AddDate(1, 0, 0)

	// Group base events and overrides by UID, keeping file order.
	var uids []string
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	var all []instance
	for _, uid := range uids {
		ov := overridesByUID[uid]
		truncated := false
		for _, ev := range baseByUID[uid] {
			inst, hitCap := expandEvent(ev, ov, yearStart, yearEnd, cfg.MaxOccurrencesPerEvent)
			truncated = truncated || hitCap
			all = append(all, inst...)
		}
		for _, o := range ov {
			all = append(all, instance{summary: o.Summary, start: o.Start, end: o.End})
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("ics expand: occurrences truncated",
				errors.New("max occurrences reached"), "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	result.Events = groupBySummary(all, yearStart, yearEnd)
	return result, nil
}

// expandEvent returns the instances of ev that may touch [from, to), and
// whether the recurrence cap was hit. Overridden instances are excluded;
// the override itself is added by the caller.
func expandEvent(ev ParsedEvent, overrides []ParsedEvent, from, to time.Time, limit int) ([]instance, bool) {
	if ev.RawRRule == "" {
		for _, o := range overrides {
			if o.Recurrence.Equal(ev.Start) {
				return nil, false
			}
		}
		return []instance{{summary: ev.Summary, start: ev.Start, end: ev.End}}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	for _, o := range overrides {
		set.ExDate(o.Recurrence.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	// Instances that start before the year can still run into it.
	times := set.Between(from.Add(-dur).In(ev.Start.Location()), to.In(ev.Start.Location()), true)

	hitCap := false
	if len(times) > limit {
		times = times[:limit]
		hitCap = true
	}

	out := make([]instance, 0, len(times))
	for _, t := range times {
		out = append(out, instance{summary: ev.Summary, start: t, end: t.Add(dur)})
	}
	return out, hitCap
}

// days lists the calendar days in loc that inst covers. All-day ends are
// exclusive; a zero-length timed instance covers its start day.
func (inst instance) days(loc *time.Location) []time.Time {
	start := inst.start.In(loc)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	if !inst.end.After(inst.start) {
		return []time.Time{first}
	}
	var out []time.Time
	for d := first; d.Before(inst.end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func groupBySummary(all []instance, yearStart, yearEnd time.Time) []model.Event {
	loc := yearStart.Location()
	daysBySummary := make(map[string]map[time.Time]struct{})
	for _, inst := range all {
		for _, d := range inst.days(loc) {
			if d.Before(yearStart) || !d.Before(yearEnd) {
				continue
			}
			set, ok := daysBySummary[inst.summary]
			if !ok {
				set = make(map[time.Time]struct{})
				daysBySummary[inst.summary] = set
			}
			set[d] = struct{}{}
		}
	}

	type named struct {
		name string
		days []time.Time
	}
	list := make([]named, 0, len(daysBySummary))
	for name, set := range daysBySummary {
		days := make([]time.Time, 0, len(set))
		for d := range set {
			days = append(days, d)
		}
		slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
		list = append(list, named{name: name, days: days})
	}
	slices.SortFunc(list, func(a, b named) int {
		if c := a.days[0].Compare(b.days[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	events := make([]model.Event, 0, len(list))
	for _, n := range list {
		ev := model.Event{Name: n.name}
		for _, d := range n.days {
			last := len(ev.Dates) - 1
			if last < 0 || ev.Dates[last].Month != int(d.Month()) {
				ev.Dates = append(ev.Dates, model.Date{Month: int(d.Month())})
				last++
			}
			ev.Dates[last].Days = append(ev.Dates[last].Days, d.Day())
		}
		events = append(events, ev)
	}
	return events
}
