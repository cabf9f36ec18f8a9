package ics

import (
	"context"
	"fmt"
	"time"

	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

// ImportOptions selects the feed and the year to fold it into.
type ImportOptions struct {
	Source   string
	Year     int
	Title    string
	Location *time.Location
}

// Import loads a feed, expands it into opts.Year and returns a validated
// calendar description.
func Import(ctx context.Context, f *Fetcher, opts ImportOptions) (model.Input, error) {
	body, err := f.Load(ctx, opts.Source)
	if err != nil {
		return model.Input{}, err
	}
	parsed, err := Parse(body, opts.Location)
	if err != nil {
		return model.Input{}, err
	}
	res, err := Expand(parsed, ExpandConfig{Year: opts.Year, Location: opts.Location})
	if err != nil {
		return model.Input{}, err
	}

	in := model.Input{Year: opts.Year, Title: opts.Title, Events: res.Events}
	if err := in.Validate(); err != nil {
		return model.Input{}, fmt.Errorf("ics: import %d: %w", opts.Year, err)
	}
	appLog.Info("ics import completed", "year", opts.Year, "events", len(in.Events), "truncated", len(res.TruncatedEvents))
	return in, nil
}
