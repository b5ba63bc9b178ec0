// Package storage is the SQLite persistence layer: chart-of-accounts CRUD
// and the read-only projections each transaction source exposes to the
// reconciliation engine.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuentas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Category deletion relies on ON DELETE SET NULL to detach children, so
	// foreign keys go on the DSN and apply to every pooled connection.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListCategories returns the flat chart-of-accounts snapshot ordered by
// code. An empty kind returns every category.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.AccountKind) ([]core.AccountCategory, error) {
	query := `SELECT id, code, name, kind, parent_id, level, is_leaf, active
	          FROM account_categories`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY code ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.AccountCategory
	for rows.Next() {
		var (
			c      core.AccountCategory
			parent sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Kind, &parent, &c.Level, &c.IsLeaf, &c.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ParentID = parent.String
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.AccountCategory, error) {
	var (
		c      core.AccountCategory
		parent sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, kind, parent_id, level, is_leaf, active
		 FROM account_categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Kind, &parent, &c.Level, &c.IsLeaf, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AccountCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.AccountCategory{}, fmt.Errorf("get category: %w", err)
	}
	c.ParentID = parent.String
	return c, nil
}

// CategoryCodeInUse reports whether another category already claims the code.
func (r *SQLiteRepository) CategoryCodeInUse(ctx context.Context, code, excludeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM account_categories WHERE code = ? AND id != ?`,
		code, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check category code: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.AccountCategory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_categories (id, code, name, kind, parent_id, level, is_leaf, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Name, string(c.Kind), nullable(c.ParentID), c.Level, c.IsLeaf, c.Active)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", c.ID,
		"code", c.Code,
		"kind", c.Kind,
		"level", c.Level)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.AccountCategory) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE account_categories
		 SET code = ?, name = ?, kind = ?, parent_id = ?, level = ?, is_leaf = ?, active = ?
		 WHERE id = ?`,
		c.Code, c.Name, string(c.Kind), nullable(c.ParentID), c.Level, c.IsLeaf, c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// MarkCategoryNonLeaf flips a category out of leaf status once it gains a
// child, so postings can no longer land on it directly.
func (r *SQLiteRepository) MarkCategoryNonLeaf(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE account_categories SET is_leaf = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark category non-leaf: %w", err)
	}
	return nil
}

// SetCategoryLevel rewrites a single category's depth. Used when a subtree
// is relocated and descendant levels must follow the moved root.
func (r *SQLiteRepository) SetCategoryLevel(ctx context.Context, id string, level int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE account_categories SET level = ? WHERE id = ?`, level, id)
	if err != nil {
		return fmt.Errorf("set category level: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Children are detached (parent_id set to
// NULL by the foreign key), never cascaded.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM account_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

// ClientPayments projects customer invoice payments into normalized
// movements, joining the client for the counterparty label.
func (r *SQLiteRepository) ClientPayments(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
	query := `SELECT p.id, p.pay_date, p.amount, p.payment_method, p.reference,
	                 p.payment_number, c.name
	          FROM client_payments p
	          LEFT JOIN clients c ON c.id = p.client_id`
	query, args := withDateWindow(query, "p.pay_date", window)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query client payments: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, payDate, amount, method string
			reference, paymentNumber    sql.NullString
			clientName                  sql.NullString
		)
		if err := rows.Scan(&id, &payDate, &amount, &method, &reference, &paymentNumber, &clientName); err != nil {
			return nil, fmt.Errorf("scan client payment: %w", err)
		}
		m, err := buildMovement(id, payDate, amount, method, core.SourceClientPayment)
		if err != nil {
			return nil, fmt.Errorf("client payment %s: %w", id, err)
		}
		m.Counterparty = fallback(clientName, "Unknown client")
		m.Description = "Invoice payment " + paymentNumber.String
		m.Reference = reference.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// POSSales projects point-of-sale receipts. Anonymous sales get the walk-in
// label so downstream grouping never sees a null counterparty.
func (r *SQLiteRepository) POSSales(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
	query := `SELECT id, sold_on, total, payment_method, sale_number, customer_name
	          FROM pos_sales`
	query, args := withDateWindow(query, "sold_on", window)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pos sales: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, soldOn, total, method string
			saleNumber                string
			customerName              sql.NullString
		)
		if err := rows.Scan(&id, &soldOn, &total, &method, &saleNumber, &customerName); err != nil {
			return nil, fmt.Errorf("scan pos sale: %w", err)
		}
		m, err := buildMovement(id, soldOn, total, method, core.SourcePOSSale)
		if err != nil {
			return nil, fmt.Errorf("pos sale %s: %w", id, err)
		}
		m.Counterparty = fallback(customerName, "Walk-in sale")
		m.Description = "POS sale " + saleNumber
		m.Reference = saleNumber
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// LedgerEntries projects manual ledger rows of one polarity. Expense entries
// already linked to a vendor payable are excluded: the payable payment is the
// authoritative record of that expense and counting both would double it.
func (r *SQLiteRepository) LedgerEntries(ctx context.Context, kind core.ReportKind, window *core.DateRange) ([]core.Movement, error) {
	query := `SELECT id, entry_date, amount, payment_method, description
	          FROM ledger_entries
	          WHERE kind = ?`
	args := []any{string(kind)}
	if kind == core.ReportExpense {
		query += ` AND payable_id IS NULL`
	}
	if window != nil {
		query += ` AND entry_date >= ? AND entry_date <= ?`
		args = append(args, window.Start.String(), window.End.String())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, entryDate, amount, method string
			description                   sql.NullString
		)
		if err := rows.Scan(&id, &entryDate, &amount, &method, &description); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		m, err := buildMovement(id, entryDate, amount, method, core.SourceLedgerEntry)
		if err != nil {
			return nil, fmt.Errorf("ledger entry %s: %w", id, err)
		}
		m.Counterparty = "Accounting entry"
		m.Description = fallback(description, "Ledger entry")
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// SupplierPayments projects vendor payable payments, joining payable and
// vendor for the concept and counterparty.
func (r *SQLiteRepository) SupplierPayments(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
	query := `SELECT pp.id, pp.pay_date, pp.amount, pp.payment_method, pp.reference,
	                 pa.concept, v.name
	          FROM payable_payments pp
	          LEFT JOIN payables pa ON pa.id = pp.payable_id
	          LEFT JOIN vendors v ON v.id = pa.vendor_id`
	query, args := withDateWindow(query, "pp.pay_date", window)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query supplier payments: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, payDate, amount, method string
			reference, concept, vendor  sql.NullString
		)
		if err := rows.Scan(&id, &payDate, &amount, &method, &reference, &concept, &vendor); err != nil {
			return nil, fmt.Errorf("scan supplier payment: %w", err)
		}
		m, err := buildMovement(id, payDate, amount, method, core.SourceSupplierPayment)
		if err != nil {
			return nil, fmt.Errorf("supplier payment %s: %w", id, err)
		}
		m.Counterparty = fallback(vendor, "Unknown supplier")
		m.Description = fallback(concept, "Supplier payment")
		m.Reference = reference.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// FixedPaymentReceipts projects receipts against recurring fixed payments.
func (r *SQLiteRepository) FixedPaymentReceipts(ctx context.Context, window *core.DateRange) ([]core.Movement, error) {
	query := `SELECT fr.id, fr.pay_date, fr.amount_paid, fr.payment_method, fr.reference,
	                 fp.name, fp.description
	          FROM fixed_payment_receipts fr
	          LEFT JOIN fixed_payments fp ON fp.id = fr.fixed_payment_id`
	query, args := withDateWindow(query, "fr.pay_date", window)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fixed payment receipts: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, payDate, amount, method  string
			reference, name, description sql.NullString
		)
		if err := rows.Scan(&id, &payDate, &amount, &method, &reference, &name, &description); err != nil {
			return nil, fmt.Errorf("scan fixed payment receipt: %w", err)
		}
		m, err := buildMovement(id, payDate, amount, method, core.SourceFixedPayment)
		if err != nil {
			return nil, fmt.Errorf("fixed payment receipt %s: %w", id, err)
		}
		m.Counterparty = fallback(name, "Fixed payment")
		m.Description = fallback(description, "Recurring payment")
		m.Reference = reference.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// Ping checks store reachability for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// buildMovement parses the shared columns of every projection. Amounts stay
// decimal text until here and become fixed-point before any arithmetic.
func buildMovement(id, date, amount, method string, tag core.SourceTag) (core.Movement, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return core.Movement{
		ID:            id,
		Date:          d,
		Amount:        a,
		Source:        tag,
		PaymentMethod: method,
	}, nil
}

// withDateWindow appends an inclusive date filter when a window is given.
// Dates are stored as YYYY-MM-DD text, so lexicographic comparison is
// chronological.
func withDateWindow(query, column string, window *core.DateRange) (string, []any) {
	if window == nil {
		return query, nil
	}
	if strings.Contains(query, "WHERE") {
		query += " AND "
	} else {
		query += " WHERE "
	}
	query += column + " >= ? AND " + column + " <= ?"
	return query, []any{window.Start.String(), window.End.String()}
}

func fallback(s sql.NullString, def string) string {
	if s.Valid && strings.TrimSpace(s.String) != "" {
		return s.String
	}
	return def
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
