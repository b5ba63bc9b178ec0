package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AggregateDaily filters movements to the window (inclusive), groups them by
// calendar date and sums amounts per group with fixed-point addition. The
// series is sparse: days without movements emit no bucket. Buckets come back
// sorted ascending by date.
func AggregateDaily(movements []Movement, window DateRange) []DailyBucket {
	totals := make(map[string]decimal.Decimal)
	dates := make(map[string]Date)
	for _, m := range movements {
		if !window.Contains(m.Date) {
			continue
		}
		day := DateOf(m.Date.Time)
		key := day.String()
		totals[key] = totals[key].Add(m.Amount)
		dates[key] = day
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]DailyBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, DailyBucket{Date: dates[k], Total: totals[k]})
	}
	return buckets
}

// Summarize computes total, count and average over the movements falling in
// the window. The average is rounded to two fraction digits and guarded
// against an empty window: zero movements yield a zero summary, never a
// division error.
func Summarize(movements []Movement, window DateRange) ReportSummary {
	total := decimal.Zero
	count := 0
	for _, m := range movements {
		if !window.Contains(m.Date) {
			continue
		}
		total = total.Add(m.Amount)
		count++
	}

	average := decimal.Zero
	if count > 0 {
		average = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}
	return ReportSummary{Total: total, Count: count, Average: average}
}
