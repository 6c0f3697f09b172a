package http

import (
	"html/template"
	"net/url"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
)

// page carries the fields every template reads from the layout.
type page struct {
	Title  string
	Active string
}

type timeframeOption struct {
	Value    string
	Label    string
	Selected bool
}

type barView struct {
	Label string
	Total core.Money
	Count int
	Width float64
}

type categoryView struct {
	Name  string
	Total core.Money
	Count int
	Share float64
	Width float64
	Color string
}

type dashboardView struct {
	page
	Timeframes []timeframeOption
	Custom     bool
	Start      string
	End        string
	NoData     bool
	Dashboard  analytics.Dashboard
	Monthly    []barView
	Weekly     []barView
	Categories []categoryView
	PieStyle   template.CSS
}

type categoryOption struct {
	Name     string
	Selected bool
}

type expensesView struct {
	page
	Start      string
	End        string
	Search     string
	Categories []categoryOption
	Records    []core.Expense
	Total      core.Money
	ExportURL  string
	Empty      bool
}

type newExpenseView struct {
	page
	Today      string
	Categories []core.Category
}

type settingsView struct {
	page
	DemoBatchSize int
	Records       int
	DBPath        string
	MirrorEnabled bool
}

func timeframeOptions(selected analytics.Timeframe) []timeframeOption {
	opts := make([]timeframeOption, 0, len(analytics.Timeframes))
	for _, t := range analytics.Timeframes {
		opts = append(opts, timeframeOption{Value: string(t), Label: t.Label(), Selected: t == selected})
	}
	return opts
}

func bars(buckets []analytics.Bucket) []barView {
	var peak int64
	for _, b := range buckets {
		if b.Total.Cents > peak {
			peak = b.Total.Cents
		}
	}
	out := make([]barView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, barView{
			Label: b.Label,
			Total: b.Total,
			Count: b.Count,
			Width: percent(b.Total.Cents, peak),
		})
	}
	return out
}

func categoryViews(cats []analytics.CategoryTotal) []categoryView {
	var peak int64
	if len(cats) > 0 {
		peak = cats[0].Total.Cents
	}
	out := make([]categoryView, 0, len(cats))
	for i, c := range cats {
		out = append(out, categoryView{
			Name:  c.Category.String(),
			Total: c.Total,
			Count: c.Count,
			Share: c.Share,
			Width: percent(c.Total.Cents, peak),
			Color: colorAt(i),
		})
	}
	return out
}

// categoryOptions lists the categories present in the data, marking the selected
// ones. A nil selection marks every option.
func categoryOptions(present []core.Category, selected []core.Category) []categoryOption {
	chosen := make(map[core.Category]bool, len(selected))
	for _, c := range selected {
		chosen[c] = true
	}
	out := make([]categoryOption, 0, len(present))
	for _, c := range present {
		out = append(out, categoryOption{Name: c.String(), Selected: selected == nil || chosen[c]})
	}
	return out
}

// exportURL rebuilds the CSV link for the current filter.
func exportURL(f analytics.Filter) string {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("start", f.Start.String())
	}
	if !f.End.IsZero() {
		q.Set("end", f.End.String())
	}
	if f.Categories != nil {
		q.Set("filtered", "1")
		for _, c := range f.Categories {
			q.Add("category", c.String())
		}
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	if len(q) == 0 {
		return "/expenses/export.csv"
	}
	return "/expenses/export.csv?" + q.Encode()
}
