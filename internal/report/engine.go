// Package report implements the reconciliation engine: it fans out over the
// three transaction sources of a report kind, merges their normalized
// movements and derives the daily and summary views.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"cuentas/internal/core"
)

// SortKey selects the ordering of a reconciled movement list.
type SortKey string

const (
	SortDateAsc         SortKey = "date_asc"
	SortDateDesc        SortKey = "date_desc"
	SortCounterpartyAsc SortKey = "counterparty_asc"
)

// Source is one read-only projection over a backing relation, producing
// movements in the normalized shape. A nil window means "everything".
type Source interface {
	Tag() core.SourceTag
	Fetch(ctx context.Context, window *core.DateRange) ([]core.Movement, error)
}

// SourceFunc adapts a fetch function into a Source.
type SourceFunc struct {
	SourceTag core.SourceTag
	Fn        func(ctx context.Context, window *core.DateRange) ([]core.Movement, error)
}

func (s SourceFunc) Tag() core.SourceTag { return s.SourceTag }

func (s SourceFunc) Fetch(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
	return s.Fn(ctx, window)
}

// Engine merges the per-kind source set into one ordered movement list. The
// income and expense sides share this single implementation; only the source
// set differs.
type Engine struct {
	sources map[core.ReportKind][]Source
	now     func() time.Time
}

// NewEngine builds an engine over the given source sets. Each kind is
// expected to carry its three sources, but the engine works with any count.
func NewEngine(income, expense []Source) *Engine {
	return &Engine{
		sources: map[core.ReportKind][]Source{
			core.ReportIncome:  income,
			core.ReportExpense: expense,
		},
		now: time.Now,
	}
}

// Reconcile fetches every source of the kind concurrently, waits for all and
// fails on the first error: a partially populated financial report is worse
// than a visible failure, so there is no partial-success mode. The combined
// list is stable-sorted by the requested key; ties keep source order.
func (e *Engine) Reconcile(ctx context.Context, kind core.ReportKind, window *core.DateRange, key SortKey) ([]core.Movement, error) {
	sources, ok := e.sources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}

	results := make([][]core.Movement, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			movements, err := src.Fetch(gctx, window)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", src.Tag(), err)
			}
			results[i] = movements
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := []core.Movement{}
	for _, part := range results {
		merged = append(merged, part...)
	}
	sortMovements(merged, key)
	return merged, nil
}

func sortMovements(movements []core.Movement, key SortKey) {
	switch key {
	case SortDateDesc:
		sort.SliceStable(movements, func(i, j int) bool {
			return movements[i].Date.After(movements[j].Date.Time)
		})
	case SortCounterpartyAsc:
		sort.SliceStable(movements, func(i, j int) bool {
			return movements[i].Counterparty < movements[j].Counterparty
		})
	default:
		sort.SliceStable(movements, func(i, j int) bool {
			return movements[i].Date.Before(movements[j].Date.Time)
		})
	}
}

// Report is the complete payload of one income or expense report: the
// reconciled list plus the two numeric views over the effective window.
type Report struct {
	Movements  []core.Movement
	DailyStats []core.DailyBucket
	Summary    core.ReportSummary
	Window     core.DateRange
}

// DefaultSortKey returns the ordering each report kind has always shipped
// with: income lists sort by counterparty, expense lists newest first.
func DefaultSortKey(kind core.ReportKind) SortKey {
	if kind == core.ReportExpense {
		return SortDateDesc
	}
	return SortCounterpartyAsc
}

// Build reconciles the kind's sources and derives dailyStats and summary.
// When window is nil the movement list is unwindowed and the numeric views
// cover the current calendar month; when a window is given all three parts
// share it.
func (e *Engine) Build(ctx context.Context, kind core.ReportKind, window *core.DateRange, key SortKey) (*Report, error) {
	movements, err := e.Reconcile(ctx, kind, window, key)
	if err != nil {
		return nil, err
	}

	effective := core.CurrentMonthRange(e.now())
	if window != nil {
		effective = *window
	}

	return &Report{
		Movements:  movements,
		DailyStats: core.AggregateDaily(movements, effective),
		Summary:    core.Summarize(movements, effective),
		Window:     effective,
	}, nil
}
