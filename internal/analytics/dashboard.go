package analytics

import "expensetracker/internal/core"

// RollingWindowDays is the width of the "Last 30 days" metric.
const RollingWindowDays = 30

// Dashboard is everything the analytics page shows for one timeframe.
type Dashboard struct {
	Timeframe  Timeframe
	Range      Range
	Total      core.Money
	Last30Days core.Money
	Records    int
	Monthly    []Bucket
	Weekly     []Bucket
	Categories []CategoryTotal
}

// BuildDashboard resolves the timeframe over all records and aggregates the
// records inside it. The rolling metric ignores the timeframe and is always
// anchored on the latest date across all records.
func BuildDashboard(all []core.Expense, t Timeframe, custom Range) (Dashboard, error) {
	r, err := ResolveTimeframe(all, t, custom)
	if err != nil {
		return Dashboard{}, err
	}

	scoped := FilterDateRange(all, r.Start, r.End)
	return Dashboard{
		Timeframe:  t,
		Range:      r,
		Total:      Sum(scoped),
		Last30Days: RollingTotal(all, RollingWindowDays),
		Records:    len(scoped),
		Monthly:    MonthlyBuckets(scoped),
		Weekly:     LastBuckets(WeeklyBuckets(scoped), WeeklyChartBuckets),
		Categories: ByCategory(scoped),
	}, nil
}

// RollingTotal sums the records dated within days of the latest record date,
// both ends included.
func RollingTotal(all []core.Expense, days int) core.Money {
	_, last, ok := Bounds(all)
	if !ok {
		return core.Money{}
	}
	return Sum(FilterDateRange(all, last.AddDays(-days), last))
}
