// Package analytics turns a fetched expense set into the views the user asks for.
//
// Every function here is pure: it reads the slice it is given and returns a new one,
// so callers can re-derive a view from a fresh fetch on every render.
package analytics

import (
	"slices"
	"strings"

	"expensetracker/internal/core"
)

// Filter describes the View & Export selection.
type Filter struct {
	// Start and End bound the date range inclusively; a zero value leaves that side open.
	Start core.Date
	End   core.Date

	// Categories restricts the result to the listed categories. A nil slice applies no
	// restriction; an empty non-nil slice matches nothing.
	Categories []core.Category

	// Search is a case-insensitive substring matched against notes.
	Search string
}

// ComputeView applies f to records and returns the result in display order.
func ComputeView(records []core.Expense, f Filter) []core.Expense {
	out := FilterDateRange(records, f.Start, f.End)
	if f.Categories != nil {
		out = FilterCategories(out, f.Categories)
	}
	out = FilterNotes(out, f.Search)
	SortForDisplay(out)
	return out
}

// FilterDateRange keeps records with start <= date <= end.
func FilterDateRange(records []core.Expense, start, end core.Date) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterCategories keeps records whose category is in selected.
// An empty selection keeps nothing.
func FilterCategories(records []core.Expense, selected []core.Category) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	if len(selected) == 0 {
		return out
	}
	set := make(map[core.Category]struct{}, len(selected))
	for _, c := range selected {
		set[c] = struct{}{}
	}
	for _, e := range records {
		if _, ok := set[e.Category]; ok {
			out = append(out, e)
		}
	}
	return out
}

// FilterNotes keeps records whose notes contain term as typed, ignoring case.
// Surrounding spaces are part of the term. An empty term keeps everything.
func FilterNotes(records []core.Expense, term string) []core.Expense {
	term = strings.ToLower(term)
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if term == "" || (e.Notes != "" && strings.Contains(strings.ToLower(e.Notes), term)) {
			out = append(out, e)
		}
	}
	return out
}

// SortForDisplay orders records in place by date, then entry time, newest first.
func SortForDisplay(records []core.Expense) {
	slices.SortStableFunc(records, func(a, b core.Expense) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

// Bounds returns the earliest and latest dates in records.
// ok is false when records is empty.
func Bounds(records []core.Expense) (first, last core.Date, ok bool) {
	if len(records) == 0 {
		return core.Date{}, core.Date{}, false
	}
	first, last = records[0].Date, records[0].Date
	for _, e := range records[1:] {
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}
	return first, last, true
}

// PresentCategories lists the distinct categories in records, sorted by name.
func PresentCategories(records []core.Expense) []core.Category {
	seen := make(map[core.Category]struct{})
	var out []core.Category
	for _, e := range records {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	slices.Sort(out)
	return out
}

// Sum totals the amounts of records.
func Sum(records []core.Expense) core.Money {
	var total core.Money
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}
