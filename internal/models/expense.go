package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for expense dates.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds Expense.Description, counted in characters.
const MaxDescriptionLength = 500

// Category is one of the fixed expense categories.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryShopping      Category = "SHOPPING"
	CategoryBills         Category = "BILLS"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryEducation     Category = "EDUCATION"
	CategoryOther         Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryEducation,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryFood:          "Food & Dining",
	CategoryTransport:     "Transportation",
	CategoryShopping:      "Shopping",
	CategoryBills:         "Bills & Utilities",
	CategoryEntertainment: "Entertainment",
	CategoryHealthcare:    "Healthcare",
	CategoryEducation:     "Education",
	CategoryOther:         "Other",
}

// Valid reports whether c is a member of the category enumeration.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable name, or the raw value for unknown categories.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Expense is a single spending record owned by one user.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// UserID is the owner. Set once at creation.
	UserID string

	// Amount is strictly positive with two fractional digits.
	Amount decimal.Decimal

	// Category defaults to CategoryOther.
	Category Category

	// Date is the calendar day the expense occurred (UTC midnight).
	Date time.Time

	// Description is optional free text, at most MaxDescriptionLength characters.
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpenseInput holds the caller-editable fields of an expense after validation.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    Category
	Date        time.Time
	Description string
}

// NewExpense builds an unsaved expense for owner from input, applying defaults
// for category and date.
func NewExpense(owner string, in ExpenseInput) *Expense {
	e := &Expense{
		UserID:      owner,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		Description: in.Description,
	}
	if e.Category == "" {
		e.Category = CategoryOther
	}
	if e.Date.IsZero() {
		e.Date = Today()
	}
	return e
}

// Apply overwrites the mutable fields of e. ID, UserID and CreatedAt are untouched.
func (e *Expense) Apply(in ExpenseInput) {
	e.Amount = in.Amount
	e.Category = in.Category
	e.Date = in.Date
	e.Description = in.Description
}

// AmountString renders the amount with exactly two decimals, e.g. "50.00".
func (e *Expense) AmountString() string {
	return FormatAmount(e.Amount)
}

// Today returns the current date at UTC midnight.
func Today() time.Time {
	return TruncateDate(time.Now())
}

// TruncateDate drops the clock part of t, keeping its calendar day.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatAmount renders d with two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// AmountToCents converts a two-decimal amount to integer cents.
func AmountToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// AmountFromCents converts integer cents back to a decimal amount.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
