// Package render turns a calendar description into an HTML document.
//
// The document is a head with the configured assets, a nav bar with the
// title, a legend of events and one table per month, Sunday first. Class
// names follow Materialize conventions; colouring event days is left to the
// stylesheet via the data-event attribute.
package render

import (
	"fmt"
	"strconv"
	"time"

	"yearcal/internal/config"
	"yearcal/internal/element"
	"yearcal/internal/model"
	"yearcal/internal/schedule"
)

// DefaultMinRows is the number of body rows every month table has. A month
// that spills into a sixth week gets an extra row instead of losing days.
const DefaultMinRows = 5

// Options carries everything the renderer needs besides the input itself.
type Options struct {
	// Assets are emitted into the head in order, after the title.
	Assets  []config.AssetConfig
	MinRows int
}

// OptionsFromConfig copies the head assets out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Assets:  cfg.Head,
		MinRows: DefaultMinRows,
	}
}

// Render builds the schedule for in and returns the serialized document.
func Render(opts Options, in model.Input) (string, error) {
	doc, err := Document(opts, in)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// Document builds the schedule for in and returns the <html> element.
func Document(opts Options, in model.Input) (*element.Element, error) {
	entries, err := schedule.Build(in.Year, in.Events)
	if err != nil {
		return nil, err
	}
	return Build(opts, in, entries)
}

// Build assembles the document from an already computed schedule.
func Build(opts Options, in model.Input, entries []schedule.Entry) (*element.Element, error) {
	doc := element.New("html")
	doc.Append(head(opts, in))

	body := element.New("body").SetAttribute("data-ready", "true")
	body.Append(nav(in), legend(in))

	container := element.New("main").AddClass("container")
	for _, group := range schedule.GroupByMonth(entries) {
		cal, err := month(opts, group)
		if err != nil {
			return nil, err
		}
		container.Append(cal)
	}
	body.Append(container)
	doc.Append(body)

	return doc, nil
}

func head(opts Options, in model.Input) *element.Element {
	h := element.New("head")
	h.Append(element.New("title").SetText(in.Title))
	for _, a := range opts.Assets {
		switch a.Kind {
		case config.AssetStylesheet:
			h.Append(element.New("link").SetAttribute("rel", "stylesheet").SetAttribute("href", a.Href))
		case config.AssetScript:
			h.Append(element.New("script").SetAttribute("src", a.Href))
		}
	}
	return h
}

func nav(in model.Input) *element.Element {
	brand := element.New("span").AddClass("brand-logo center").SetText(in.Title)
	wrapper := element.New("div").AddClass("nav-wrapper").Append(brand)
	return element.New("nav").Append(wrapper)
}

// legend lists every event with a marker carrying its index.
func legend(in model.Input) *element.Element {
	ul := element.New("ul").AddClass("legend")
	for i, ev := range in.Events {
		marker := element.New("span").AddClass("event-marker").SetAttribute("data-event", strconv.Itoa(i))
		name := element.New("span").AddClass("event-name").SetText(ev.Name)
		ul.Append(element.New("li").AddClass("legend-item").Append(marker, name))
	}
	return element.New("header").Append(ul)
}

// month renders one contiguous run of days that share a month.
func month(opts Options, days []schedule.Entry) (*element.Element, error) {
	first := days[0].Date
	name, err := MonthName(int(first.Month()) - 1)
	if err != nil {
		return nil, err
	}

	title := element.New("div").AddClass("calendar-title").
		SetText(fmt.Sprintf("%s / %d", name, first.Year()))

	table := element.New("table").AddClass("calendar-table")
	table.Append(weekdayHeader(), grid(days, opts.MinRows))

	return element.New("div").AddClass("calendar").Append(title, table), nil
}

func weekdayHeader() *element.Element {
	tr := element.New("tr")
	for col, label := range weekdayLabels {
		th := element.New("th").SetText(label)
		addWeekendClass(th, col)
		tr.Append(th)
	}
	return element.New("thead").Append(tr)
}

// grid walks the cells left to right, top to bottom and places the next
// unplaced day whenever its weekday matches the cell's column.
func grid(days []schedule.Entry, minRows int) *element.Element {
	if minRows <= 0 {
		minRows = DefaultMinRows
	}
	offset := int(days[0].Date.Weekday())
	rows := max(minRows, (offset+len(days)+6)/7)

	tbody := element.New("tbody")
	next := 0
	for r := 0; r < rows; r++ {
		tr := element.New("tr")
		for col := 0; col < 7; col++ {
			td := element.New("td").AddClass("day")
			addWeekendClass(td, col)
			if next < len(days) && int(days[next].Date.Weekday()) == col {
				fillDay(td, days[next])
				next++
			} else {
				td.AddClass("empty")
			}
			tr.Append(td)
		}
		tbody.Append(tr)
	}
	return tbody
}

func fillDay(td *element.Element, e schedule.Entry) {
	td.SetText(strconv.Itoa(e.Date.Day()))
	if idx, ok := e.EventIndex(); ok {
		td.AddClass("event").SetAttribute("data-event", strconv.Itoa(idx))
	}
}

func addWeekendClass(e *element.Element, col int) {
	switch time.Weekday(col) {
	case time.Sunday:
		e.AddClass("sunday")
	case time.Saturday:
		e.AddClass("saturday")
	}
}
