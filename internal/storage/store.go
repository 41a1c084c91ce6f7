// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expensetracker/internal/models"
)

// ErrNotFound is returned when a record does not exist for the requesting owner.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

// IsUniqueViolation reports whether a driver error is a unique-constraint failure.
// Drivers only expose this through their messages.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint") || strings.Contains(s, "duplicate key")
}

// ExpenseFilter narrows an owner's expenses. Zero values mean "not applied".
type ExpenseFilter struct {
	Category models.Category
	DateFrom time.Time
	DateTo   time.Time
	Search   string

	// Limit caps the returned page; 0 returns every match.
	Limit  int
	Offset int
}

// ExpensePage is one page of a filtered listing plus aggregates over all matches.
type ExpensePage struct {
	Expenses []*models.Expense

	// TotalCount and TotalAmount cover the whole filtered set, not only this page.
	TotalCount  int
	TotalAmount decimal.Decimal
}

// ExpenseStore persists expenses. Every lookup is constrained to an owner.
type ExpenseStore interface {
	// CreateExpense assigns ID, CreatedAt and UpdatedAt and persists the expense.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns the expense only if it belongs to ownerID.
	// Returns ErrNotFound otherwise.
	GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error)

	// UpdateExpense writes amount, category, date and description of an expense
	// matched on both ID and UserID, and advances UpdatedAt.
	// Returns ErrNotFound if no such row exists.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense permanently removes an owned expense.
	// Returns ErrNotFound if no such row exists.
	DeleteExpense(ctx context.Context, ownerID, id string) error

	// ListExpenses returns ownerID's expenses matching filter, newest first.
	ListExpenses(ctx context.Context, ownerID string, filter ExpenseFilter) (*ExpensePage, error)

	// CountExpensesBefore counts expenses of every owner dated strictly before cutoff.
	CountExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteExpensesBefore removes expenses of every owner dated strictly before cutoff.
	DeleteExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore persists user accounts. Lookups return (nil, nil) when no user matches.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store combines every persistence operation of the service.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	ExpenseStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

// Now returns the current time at the precision every backend can round-trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NextUpdatedAt returns a modification timestamp strictly after prev.
func NextUpdatedAt(prev time.Time) time.Time {
	now := Now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// LikePattern builds a LIKE pattern matching term anywhere, with wildcards escaped using '\'.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
