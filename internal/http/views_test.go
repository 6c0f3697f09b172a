package http

import (
	"strings"
	"testing"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
)

func TestExportURL(t *testing.T) {
	tests := []struct {
		name   string
		filter analytics.Filter
		want   string
	}{
		{"no filter", analytics.Filter{}, "/expenses/export.csv"},
		{
			"full filter",
			analytics.Filter{
				Start:      core.NewDate(2024, 1, 1),
				End:        core.NewDate(2024, 1, 31),
				Categories: []core.Category{core.Food, core.Other},
				Search:     "a b",
			},
			"/expenses/export.csv?category=Food&category=Other&end=2024-01-31&filtered=1&q=a+b&start=2024-01-01",
		},
		{"empty selection", analytics.Filter{Categories: []core.Category{}}, "/expenses/export.csv?filtered=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportURL(tt.filter); got != tt.want {
				t.Errorf("exportURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryOptions(t *testing.T) {
	present := []core.Category{core.Food, core.Housing, "Groceries"}

	all := categoryOptions(present, nil)
	for _, o := range all {
		if !o.Selected {
			t.Errorf("%s should be selected without a filter", o.Name)
		}
	}

	some := categoryOptions(present, []core.Category{"Groceries"})
	if some[0].Selected || some[1].Selected || !some[2].Selected {
		t.Errorf("unexpected selection: %+v", some)
	}
}

func TestBarsScaleToPeak(t *testing.T) {
	got := bars([]analytics.Bucket{
		{Label: "2024-01", Total: core.Money{Cents: 5000}},
		{Label: "2024-02", Total: core.Money{}},
		{Label: "2024-03", Total: core.Money{Cents: 10000}},
	})
	if got[0].Width != 50 || got[1].Width != 0 || got[2].Width != 100 {
		t.Fatalf("widths = %v, %v, %v", got[0].Width, got[1].Width, got[2].Width)
	}
}

func TestPieGradient(t *testing.T) {
	if got := string(pieGradient(nil)); strings.Contains(got, "conic") {
		t.Errorf("empty pie = %q", got)
	}

	got := string(pieGradient([]analytics.CategoryTotal{
		{Category: core.Housing, Share: 0.75},
		{Category: core.Food, Share: 0.25},
	}))
	want := "background: conic-gradient(#4e79a7 0.00% 75.00%, #f28e2b 75.00% 100.00%)"
	if got != want {
		t.Errorf("pieGradient() = %q, want %q", got, want)
	}
}

func TestTimeframeOptionsMarkSelection(t *testing.T) {
	opts := timeframeOptions(analytics.YearToDate)
	if len(opts) != len(analytics.Timeframes) {
		t.Fatalf("got %d options", len(opts))
	}
	for _, o := range opts {
		if o.Selected != (o.Value == string(analytics.YearToDate)) {
			t.Errorf("option %s selected=%v", o.Value, o.Selected)
		}
	}
}
