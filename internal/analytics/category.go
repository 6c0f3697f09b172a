package analytics

import (
	"cmp"
	"slices"

	"expensetracker/internal/core"
)

// CategoryTotal represents an amount aggregated by category.
type CategoryTotal struct {
	Category core.Category
	Total    core.Money
	Count    int
	// Share is the fraction of the grand total, in [0, 1].
	Share float64
}

// ByCategory sums records per category, largest total first.
func ByCategory(records []core.Expense) []CategoryTotal {
	index := make(map[core.Category]int)
	var out []CategoryTotal
	var grand int64
	for _, e := range records {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
		grand += e.Amount.Cents
	}

	for i := range out {
		if grand > 0 {
			out[i].Share = float64(out[i].Total.Cents) / float64(grand)
		}
	}

	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}
