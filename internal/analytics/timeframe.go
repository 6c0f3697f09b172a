package analytics

import (
	"errors"
	"fmt"
	"strings"

	"expensetracker/internal/core"
)

// Timeframe names a dashboard date interval.
type Timeframe string

const (
	Last30Days Timeframe = "last30"
	Last90Days Timeframe = "last90"
	YearToDate Timeframe = "ytd"
	AllTime    Timeframe = "all"
	Custom     Timeframe = "custom"
)

var (
	// ErrNoData is returned when there are no records to analyse.
	ErrNoData           = errors.New("no data")
	ErrInvalidRange     = errors.New("start date is after end date")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// Timeframes lists the selectable timeframes in menu order.
var Timeframes = []Timeframe{Last30Days, Last90Days, YearToDate, AllTime, Custom}

var timeframeLabels = map[Timeframe]string{
	Last30Days: "Last 30 days",
	Last90Days: "Last 90 days",
	YearToDate: "Year to date",
	AllTime:    "All time",
	Custom:     "Custom range",
}

// Label returns the human-readable name shown in the timeframe selector.
func (t Timeframe) Label() string {
	if l, ok := timeframeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseTimeframe accepts either the short key ("last30") or the label ("Last 30 days").
// An empty string selects Last30Days.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Last30Days, nil
	}
	for _, t := range Timeframes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
}

// Range is an inclusive calendar interval.
type Range struct {
	Start core.Date
	End   core.Date
}

// Contains reports whether d lies within r, bounds included.
func (r Range) Contains(d core.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) String() string {
	return r.Start.String() + " to " + r.End.String()
}

// ResolveTimeframe computes the interval a timeframe covers over records.
// Named timeframes are anchored on the latest date in records. For Custom, the
// supplied range is used, with missing bounds filled from the data.
func ResolveTimeframe(records []core.Expense, t Timeframe, custom Range) (Range, error) {
	first, last, ok := Bounds(records)
	if !ok {
		return Range{}, ErrNoData
	}

	switch t {
	case Last30Days:
		return Range{Start: last.AddDays(-30), End: last}, nil
	case Last90Days:
		return Range{Start: last.AddDays(-90), End: last}, nil
	case YearToDate:
		return Range{Start: core.NewDate(last.Year(), 1, 1), End: last}, nil
	case AllTime:
		return Range{Start: first, End: last}, nil
	case Custom:
		r := custom
		if r.Start.IsZero() {
			r.Start = first
		}
		if r.End.IsZero() {
			r.End = last
		}
		if r.Start.After(r.End) {
			return Range{}, ErrInvalidRange
		}
		return r, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, t)
	}
}
