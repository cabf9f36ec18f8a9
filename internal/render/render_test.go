package render

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"yearcal/internal/config"
	"yearcal/internal/element"
	"yearcal/internal/model"
)

func testOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

func singleEvent(year, month int, days ...int) model.Input {
	return model.Input{
		Year:  year,
		Title: "T",
		Events: []model.Event{
			{Name: "E1", Dates: []model.Date{{Month: month, Days: days}}},
		},
	}
}

// calendars returns the div.calendar blocks of a rendered document.
func calendars(t *testing.T, doc *element.Element) []*element.Element {
	t.Helper()
	body := doc.Children()[1]
	if body.Tag() != "body" {
		t.Fatalf("second child of html is %s", body.Tag())
	}
	container := body.Children()[2]
	if container.Tag() != "main" {
		t.Fatalf("third child of body is %s", container.Tag())
	}
	return container.Children()
}

// bodyRows returns the <tr> rows of a calendar's tbody.
func bodyRows(cal *element.Element) []*element.Element {
	table := cal.Children()[1]
	return table.Children()[1].Children()
}

func TestRenderEndToEnd(t *testing.T) {
	out, err := Render(testOptions(), singleEvent(2024, 1, 1))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.HasPrefix(out, "<html><head><title>T</title>") {
		t.Fatalf("unexpected prefix: %.80s", out)
	}
	if !strings.HasSuffix(out, "</html>") {
		t.Fatalf("unexpected suffix")
	}
	if n := strings.Count(out, `class="calendar"`); n != 1 {
		t.Fatalf("expected 1 calendar block, got %d", n)
	}
	if !strings.Contains(out, `<div class="calendar-title">January / 2024</div>`) {
		t.Fatalf("missing month title")
	}
	if !strings.Contains(out, `<span class="brand-logo center">T</span>`) {
		t.Fatalf("missing nav brand")
	}
	// Jan 1 2024 is a Monday.
	if !strings.Contains(out, `<td class="day event" data-event="0">1</td>`) {
		t.Fatalf("January 1 not marked: %s", out)
	}
	if n := strings.Count(out, `data-event="0"`); n != 2 {
		t.Fatalf("expected marker + one marked day, got %d", n)
	}
}

func TestHeadAssets(t *testing.T) {
	opts := Options{Assets: []config.AssetConfig{
		{Kind: config.AssetScript, Href: "b.js"},
		{Kind: config.AssetStylesheet, Href: "a.css"},
	}}
	out, err := Render(opts, singleEvent(2024, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := `<head><title>T</title><script src="b.js"></script><link rel="stylesheet" href="a.css"></link></head>`
	if !strings.Contains(out, want) {
		t.Fatalf("head mismatch: %.200s", out)
	}
}

func TestDefaultHeadOrder(t *testing.T) {
	out, err := Render(testOptions(), singleEvent(2024, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	css := strings.Index(out, "materialize.min.css")
	js := strings.Index(out, "materialize.min.js")
	icons := strings.Index(out, "Material+Icons")
	if css < 0 || js < 0 || icons < 0 {
		t.Fatalf("default assets missing: %.400s", out)
	}
	if !(css < js && js < icons) {
		t.Fatalf("expected CSS, JS, Icons order; got offsets %d, %d, %d", css, js, icons)
	}
}

func TestWeekdayHeaderIsFixed(t *testing.T) {
	in := model.Input{
		Year:  2023,
		Title: "T",
		Events: []model.Event{
			{Name: "A", Dates: []model.Date{{Month: 2, Days: []int{1}}, {Month: 4, Days: []int{1}}}},
		},
	}
	out, err := Render(testOptions(), in)
	if err != nil {
		t.Fatal(err)
	}
	header := `<thead><tr><th class="sunday">Sun</th><th>Mon</th><th>Tue</th><th>Wed</th><th>Thu</th><th>Fri</th><th class="saturday">Sat</th></tr></thead>`
	if n := strings.Count(out, header); n != 3 {
		t.Fatalf("expected header in each of 3 months, got %d", n)
	}
}

func TestFirstDayUnderItsWeekday(t *testing.T) {
	cases := []struct {
		month   int
		wantCol int
	}{
		{1, 1},  // Monday
		{5, 3},  // Wednesday
		{6, 6},  // Saturday
		{9, 0},  // Sunday
		{11, 5}, // Friday
	}
	for _, c := range cases {
		doc, err := Document(testOptions(), singleEvent(2024, c.month, 1))
		if err != nil {
			t.Fatal(err)
		}
		first := bodyRows(calendars(t, doc)[0])[0].Children()
		for col, td := range first {
			want := ""
			if col >= c.wantCol {
				want = strconv.Itoa(col - c.wantCol + 1)
			}
			if td.Text() != want {
				t.Errorf("month %d col %d: got %q, want %q", c.month, col, td.Text(), want)
			}
		}
	}
}

func TestGridRows(t *testing.T) {
	cases := []struct {
		name     string
		year     int
		month    int
		rows     int
		lastText string
	}{
		// Feb 2015 starts on Sunday and fills exactly four rows.
		{"short month keeps five rows", 2015, 2, 5, ""},
		{"regular month", 2024, 1, 5, ""},
		// Jun 2024 starts on Saturday; day 30 lands on a sixth row.
		{"overflowing month gets sixth row", 2024, 6, 6, "30"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc, err := Document(testOptions(), singleEvent(c.year, c.month, 1))
			if err != nil {
				t.Fatal(err)
			}
			rows := bodyRows(calendars(t, doc)[0])
			if len(rows) != c.rows {
				t.Fatalf("expected %d rows, got %d", c.rows, len(rows))
			}
			placed := 0
			for _, tr := range rows {
				if len(tr.Children()) != 7 {
					t.Fatalf("row has %d cells", len(tr.Children()))
				}
				for _, td := range tr.Children() {
					if td.Text() != "" {
						placed++
					}
				}
			}
			if want := model.DaysIn(c.year, time.Month(c.month)); placed != want {
				t.Fatalf("placed %d days, want %d", placed, want)
			}
			if c.lastText != "" {
				last := rows[len(rows)-1].Children()[0]
				if last.Text() != c.lastText {
					t.Fatalf("first cell of last row = %q, want %q", last.Text(), c.lastText)
				}
			}
		})
	}
}

func TestLegend(t *testing.T) {
	in := model.Input{
		Year:  2024,
		Title: "T",
		Events: []model.Event{
			{Name: "A", Dates: []model.Date{{Month: 3, Days: []int{5}}}},
			{Name: "B", Dates: []model.Date{{Month: 3, Days: []int{5, 6}}}},
		},
	}
	out, err := Render(testOptions(), in)
	if err != nil {
		t.Fatal(err)
	}
	want := `<header><ul class="legend">` +
		`<li class="legend-item"><span class="event-marker" data-event="0"></span><span class="event-name">A</span></li>` +
		`<li class="legend-item"><span class="event-marker" data-event="1"></span><span class="event-name">B</span></li>` +
		`</ul></header>`
	if !strings.Contains(out, want) {
		t.Fatalf("legend mismatch: %s", out)
	}
	// March 5 2024 is a Tuesday; B wins the collision.
	if !strings.Contains(out, `<td class="day event" data-event="1">5</td>`) {
		t.Fatalf("March 5 should carry event 1")
	}
	if strings.Contains(out, `data-event="0">5<`) {
		t.Fatalf("March 5 should not carry event 0")
	}
}

func TestTitleIsEscaped(t *testing.T) {
	in := singleEvent(2024, 1, 1)
	in.Title = "Tom & Jerry <3"
	out, err := Render(testOptions(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<title>Tom &amp; Jerry &lt;3</title>") {
		t.Fatalf("title not escaped: %.120s", out)
	}
}

func TestRenderRejectsEmptyEvents(t *testing.T) {
	_, err := Render(testOptions(), model.Input{Year: 2024, Title: "T"})
	if !errors.Is(err, model.ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
}

func TestMonthName(t *testing.T) {
	if got, err := MonthName(0); err != nil || got != "January" {
		t.Fatalf("MonthName(0) = %q, %v", got, err)
	}
	if got, err := MonthName(11); err != nil || got != "December" {
		t.Fatalf("MonthName(11) = %q, %v", got, err)
	}
	for _, i := range []int{-1, 12, 100} {
		if _, err := MonthName(i); !errors.Is(err, ErrMonthOutOfRange) {
			t.Errorf("MonthName(%d) err = %v", i, err)
		}
	}
}
