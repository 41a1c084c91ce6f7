package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

const expenseColumns = `id, user_id, amount_cents, category, date, description, created_at, updated_at`

// expenseOrder is newest first; rowid breaks ties between identical timestamps.
const expenseOrder = `ORDER BY date DESC, created_at DESC, rowid DESC`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateExpense persists a new expense to the database.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := storage.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.UserID,
		models.AmountToCents(expense.Amount),
		string(expense.Category),
		expense.Date.Format(models.DateLayout),
		expense.Description,
		now.UnixMicro(),
		now.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, scoped to its owner.
func (s *SQLiteStore) GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// UpdateExpense writes the mutable fields of an owned expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	updatedAt := storage.NextUpdatedAt(expense.UpdatedAt)

	result, err := s.db.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, category = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		models.AmountToCents(expense.Amount),
		string(expense.Category),
		expense.Date.Format(models.DateLayout),
		expense.Description,
		updatedAt.UnixMicro(),
		expense.ID,
		expense.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if err := requireOneRow(result, expense.ID); err != nil {
		return err
	}

	expense.UpdatedAt = updatedAt
	return nil
}

// DeleteExpense removes an owned expense permanently.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?",
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	return requireOneRow(result, id)
}

// ListExpenses returns one page of an owner's filtered expenses plus totals over every match.
// Both queries run in one transaction so the page and the totals agree.
func (s *SQLiteStore) ListExpenses(ctx context.Context, ownerID string, filter storage.ExpenseFilter) (*storage.ExpensePage, error) {
	where, args := buildExpenseWhere(ownerID, filter)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	page := &storage.ExpensePage{}
	var totalCents int64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE `+where,
		args...,
	).Scan(&page.TotalCount, &totalCents)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses: %w", err)
	}
	page.TotalAmount = models.AmountFromCents(totalCents)

	limit := -1 // SQLite: no limit
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	pageArgs := append(append([]any{}, args...), limit, filter.Offset)

	rows, err := tx.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+where+` `+expenseOrder+` LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	page.Expenses = make([]*models.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		page.Expenses = append(page.Expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return page, nil
}

// CountExpensesBefore counts expenses dated before cutoff across all users.
func (s *SQLiteStore) CountExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE date < ?",
		cutoff.Format(models.DateLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

// DeleteExpensesBefore deletes expenses dated before cutoff across all users.
func (s *SQLiteStore) DeleteExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE date < ?",
		cutoff.Format(models.DateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expenses: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// buildExpenseWhere returns the WHERE clause (without the keyword) for an owner and filter.
// The owner predicate is always first and always present.
func buildExpenseWhere(ownerID string, f storage.ExpenseFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{ownerID}

	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.DateFrom.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.DateFrom.Format(models.DateLayout))
	}
	if !f.DateTo.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.DateTo.Format(models.DateLayout))
	}
	if f.Search != "" {
		clauses = append(clauses,
			`(`+foldFunc+`(description) LIKE `+foldFunc+`(?) ESCAPE '\' OR printf('%d.%02d', amount_cents / 100, amount_cents % 100) LIKE ? ESCAPE '\')`)
		args = append(args, storage.LikePattern(f.Search), storage.LikePattern(f.Search))
	}

	return strings.Join(clauses, " AND "), args
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		expense              models.Expense
		amountCents          int64
		category, date       string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&amountCents,
		&category,
		&date,
		&expense.Description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	d, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}

	expense.Amount = models.AmountFromCents(amountCents)
	expense.Category = models.Category(category)
	expense.Date = d
	expense.CreatedAt = time.UnixMicro(createdAt).UTC()
	expense.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &expense, nil
}

func requireOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
