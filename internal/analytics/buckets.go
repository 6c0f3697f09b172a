package analytics

import (
	"fmt"

	"expensetracker/internal/core"
)

// Bucket is the total spent in one calendar month or week.
type Bucket struct {
	Start core.Date
	Label string
	Total core.Money
	Count int
}

// WeeklyChartBuckets is how many weeks the weekly chart shows.
const WeeklyChartBuckets = 12

// MonthlyBuckets sums records per calendar month. The result covers every month
// from the earliest to the latest record, months without records included with a
// zero total. No records yields no buckets.
func MonthlyBuckets(records []core.Expense) []Bucket {
	return resample(records, monthStart, func(d core.Date) core.Date {
		return core.Date{Time: d.AddDate(0, 1, 0)}
	}, func(d core.Date) string {
		return d.Format("2006-01")
	})
}

// WeeklyBuckets sums records per week, weeks starting on Monday. Like
// MonthlyBuckets, empty weeks inside the observed range are emitted as zero.
func WeeklyBuckets(records []core.Expense) []Bucket {
	return resample(records, weekStart, func(d core.Date) core.Date {
		return d.AddDays(7)
	}, func(d core.Date) string {
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	})
}

// LastBuckets returns at most the n most recent buckets.
func LastBuckets(buckets []Bucket, n int) []Bucket {
	if n <= 0 || len(buckets) <= n {
		return buckets
	}
	return buckets[len(buckets)-n:]
}

func resample(records []core.Expense, floor func(core.Date) core.Date, next func(core.Date) core.Date, label func(core.Date) string) []Bucket {
	first, last, ok := Bounds(records)
	if !ok {
		return nil
	}

	var buckets []Bucket
	index := make(map[string]int)
	for d := floor(first); !d.After(floor(last)); d = next(d) {
		index[d.String()] = len(buckets)
		buckets = append(buckets, Bucket{Start: d, Label: label(d)})
	}

	for _, e := range records {
		b := &buckets[index[floor(e.Date).String()]]
		b.Total = b.Total.Add(e.Amount)
		b.Count++
	}
	return buckets
}

func monthStart(d core.Date) core.Date {
	return core.NewDate(d.Year(), int(d.Month()), 1)
}

func weekStart(d core.Date) core.Date {
	// time.Weekday counts from Sunday = 0
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
