package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindAsset     AccountKind = "asset"
	KindLiability AccountKind = "liability"
	KindEquity    AccountKind = "equity"
	KindIncome    AccountKind = "income"
	KindCost      AccountKind = "cost"
	KindExpense   AccountKind = "expense"
)

const (
	SourceClientPayment   SourceTag = "CLIENT_PAYMENT"
	SourcePOSSale         SourceTag = "POS_SALE"
	SourceLedgerEntry     SourceTag = "LEDGER_ENTRY"
	SourceSupplierPayment SourceTag = "SUPPLIER_PAYMENT"
	SourceFixedPayment    SourceTag = "FIXED_PAYMENT"
)

const (
	ReportIncome  ReportKind = "income"
	ReportExpense ReportKind = "expense"
)

type (
	// AccountKind classifies a chart-of-accounts category.
	AccountKind string

	// SourceTag identifies which transaction source produced a movement.
	SourceTag string

	// ReportKind selects the income or expense side of a report.
	ReportKind string

	Date struct {
		time.Time
	}

	// AccountCategory is one node of the chart of accounts. Children is only
	// populated by BuildCategoryTree; the flat relation leaves it nil.
	AccountCategory struct {
		ID       string             `json:"id"`
		Code     string             `json:"code"`
		Name     string             `json:"name"`
		Kind     AccountKind        `json:"kind"`
		ParentID string             `json:"parentId,omitempty"`
		Level    int                `json:"level"`
		IsLeaf   bool               `json:"isLeaf"`
		Active   bool               `json:"active"`
		Children []*AccountCategory `json:"children,omitempty"`
	}

	// Movement is the normalized shape every transaction source maps into.
	// It is ephemeral: computed per report request, never persisted.
	Movement struct {
		ID            string          `json:"id"`
		Date          Date            `json:"date"`
		Amount        decimal.Decimal `json:"amount"`
		Counterparty  string          `json:"counterparty"`
		Description   string          `json:"description"`
		Source        SourceTag       `json:"source"`
		PaymentMethod string          `json:"paymentMethod"`
		Reference     string          `json:"reference,omitempty"`
	}

	// DateRange is an inclusive calendar-date window.
	DateRange struct {
		Start Date
		End   Date
	}

	// DailyBucket is the sum of all movement amounts on one calendar date.
	DailyBucket struct {
		Date  Date            `json:"date"`
		Total decimal.Decimal `json:"total"`
	}

	ReportSummary struct {
		Total   decimal.Decimal `json:"total"`
		Count   int             `json:"count"`
		Average decimal.Decimal `json:"average"`
	}

	// TreeWarning records a category whose parent reference could not be
	// resolved during tree building. The node is still surfaced as a root.
	TreeWarning struct {
		CategoryID string
		Code       string
		ParentID   string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNotFound      = errors.New("not found")
)

// ValidationError marks malformed caller input. Handlers map it to a 4xx
// response instead of a generic server error.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a plain message.
func Validationf(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var accountKinds = map[AccountKind]bool{
	KindAsset:     true,
	KindLiability: true,
	KindEquity:    true,
	KindIncome:    true,
	KindCost:      true,
	KindExpense:   true,
}

func (k AccountKind) Valid() bool { return accountKinds[k] }

func (c AccountCategory) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return Validationf("category code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("category name is required")
	}
	if !c.Kind.Valid() {
		return Validationf("unknown account kind: " + string(c.Kind))
	}
	if c.Level < 1 {
		return Validationf("category level must be positive")
	}
	return nil
}

// NewDate creates a Date at midnight UTC for the given calendar day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date. Time-of-day never
// matters downstream: two movements on the same day land in one bucket.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string { return d.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CurrentMonthRange is the default reporting window: the first calendar day
// of now's month through now's calendar date, inclusive.
func CurrentMonthRange(now time.Time) DateRange {
	return DateRange{
		Start: NewDate(now.Year(), int(now.Month()), 1),
		End:   DateOf(now),
	}
}

// Contains reports whether the calendar date d falls inside the window,
// boundaries included.
func (r DateRange) Contains(d Date) bool {
	day := DateOf(d.Time).Time
	return !day.Before(DateOf(r.Start.Time).Time) && !day.After(DateOf(r.End.Time).Time)
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return Validationf("date window needs both start and end")
	}
	if r.End.Before(r.Start.Time) {
		return Validationf("date window end precedes start")
	}
	return nil
}
