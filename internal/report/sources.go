package report

import (
	"context"

	"cuentas/internal/core"
	"cuentas/internal/storage"
)

// NewSQLiteEngine wires the three income and three expense projections of
// the SQLite store into an engine.
func NewSQLiteEngine(repo *storage.SQLiteRepository) *Engine {
	income := []Source{
		SourceFunc{SourceTag: core.SourceClientPayment, Fn: repo.ClientPayments},
		SourceFunc{SourceTag: core.SourcePOSSale, Fn: repo.POSSales},
		SourceFunc{SourceTag: core.SourceLedgerEntry, Fn: ledgerSide(repo, core.ReportIncome)},
	}
	expense := []Source{
		SourceFunc{SourceTag: core.SourceSupplierPayment, Fn: repo.SupplierPayments},
		SourceFunc{SourceTag: core.SourceFixedPayment, Fn: repo.FixedPaymentReceipts},
		SourceFunc{SourceTag: core.SourceLedgerEntry, Fn: ledgerSide(repo, core.ReportExpense)},
	}
	return NewEngine(income, expense)
}

func ledgerSide(repo *storage.SQLiteRepository, kind core.ReportKind) func(context.Context, *core.DateRange) ([]core.Movement, error) {
	return func(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
		return repo.LedgerEntries(ctx, kind, window)
	}
}
