package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mv(id, date, amount string) Movement {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	a, err := ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	return Movement{ID: id, Date: d, Amount: a, Source: SourceLedgerEntry}
}

func window(start, end string) DateRange {
	s, _ := ParseDate(start)
	e, _ := ParseDate(end)
	return DateRange{Start: s, End: e}
}

func TestAggregateDaily(t *testing.T) {
	movements := []Movement{
		mv("1", "2026-03-02", "100.00"),
		mv("2", "2026-03-02", "250.50"),
		mv("3", "2026-03-05", "40.00"),
		mv("4", "2026-02-20", "999.99"), // outside window
	}
	buckets := AggregateDaily(movements, window("2026-03-01", "2026-03-31"))

	if len(buckets) != 2 {
		t.Fatalf("expected 2 sparse buckets, got %d", len(buckets))
	}
	if buckets[0].Date.String() != "2026-03-02" || buckets[0].Total.String() != "350.5" {
		t.Fatalf("bucket 0: %s %s", buckets[0].Date, buckets[0].Total)
	}
	if buckets[1].Date.String() != "2026-03-05" || buckets[1].Total.String() != "40" {
		t.Fatalf("bucket 1: %s %s", buckets[1].Date, buckets[1].Total)
	}
}

func TestAggregateDailyWindowBoundariesInclusive(t *testing.T) {
	movements := []Movement{
		mv("1", "2026-03-01", "1.00"),
		mv("2", "2026-03-31", "2.00"),
		mv("3", "2026-04-01", "4.00"),
	}
	buckets := AggregateDaily(movements, window("2026-03-01", "2026-03-31"))
	if len(buckets) != 2 {
		t.Fatalf("boundaries must be inclusive, got %d buckets", len(buckets))
	}
}

func TestSummarize(t *testing.T) {
	movements := []Movement{
		mv("1", "2026-03-02", "100.00"),
		mv("2", "2026-03-03", "250.50"),
		mv("3", "2026-03-05", "40.00"),
		mv("4", "2026-02-20", "999.99"), // outside window
	}
	s := Summarize(movements, window("2026-03-01", "2026-03-31"))

	if s.Count != 3 {
		t.Fatalf("count: expected 3, got %d", s.Count)
	}
	if s.Total.String() != "390.5" {
		t.Fatalf("total: expected 390.5, got %s", s.Total)
	}
	if s.Average.String() != "130.17" {
		t.Fatalf("average: expected 130.17, got %s", s.Average)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, window("2026-03-01", "2026-03-31"))
	if s.Count != 0 || !s.Total.IsZero() || !s.Average.IsZero() {
		t.Fatalf("empty summary must be all zero: %+v", s)
	}
}

func TestDailyTotalsMatchSummaryTotal(t *testing.T) {
	movements := []Movement{
		mv("1", "2026-03-02", "0.10"),
		mv("2", "2026-03-02", "0.20"),
		mv("3", "2026-03-07", "0.30"),
		mv("4", "2026-03-09", "12.99"),
	}
	w := window("2026-03-01", "2026-03-31")

	sum := decimal.Zero
	for _, b := range AggregateDaily(movements, w) {
		sum = sum.Add(b.Total)
	}
	if !sum.Equal(Summarize(movements, w).Total) {
		t.Fatalf("bucket sum %s drifted from summary total", sum)
	}
}

func TestCurrentMonthRange(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 4, 0, 0, time.UTC)
	r := CurrentMonthRange(now)
	if r.Start.String() != "2026-08-01" || r.End.String() != "2026-08-29" {
		t.Fatalf("unexpected default window: %s..%s", r.Start, r.End)
	}
}

func TestDateRangeValidate(t *testing.T) {
	if err := window("2026-03-01", "2026-03-31").Validate(); err != nil {
		t.Fatalf("expected valid window, got %v", err)
	}
	if err := window("2026-03-31", "2026-03-01").Validate(); err == nil {
		t.Fatalf("expected error for inverted window")
	}
	if err := (DateRange{}).Validate(); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
