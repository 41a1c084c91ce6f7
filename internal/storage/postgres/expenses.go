package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

// amountText renders amount_cents as "D.CC" without going through floats.
const amountText = `((amount_cents / 100)::text || '.' || lpad((amount_cents % 100)::text, 2, '0'))`

func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := storage.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	if err := s.db.WithContext(ctx).Omit("User").Create(rowFromExpense(expense)).Error; err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	var row expenseRow
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	updatedAt := storage.NextUpdatedAt(expense.UpdatedAt)

	result := s.db.WithContext(ctx).
		Model(&expenseRow{}).
		Where("id = ? AND user_id = ?", expense.ID, expense.UserID).
		Updates(map[string]any{
			"amount_cents": models.AmountToCents(expense.Amount),
			"category":     string(expense.Category),
			"date":         models.TruncateDate(expense.Date),
			"description":  expense.Description,
			"updated_at":   updatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	expense.UpdatedAt = updatedAt
	return nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&expenseRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListExpenses runs the aggregate and the page query in one repeatable-read
// transaction so both see the same rows.
func (s *PostgresStore) ListExpenses(ctx context.Context, ownerID string, filter storage.ExpenseFilter) (*storage.ExpensePage, error) {
	page := &storage.ExpensePage{Expenses: make([]*models.Expense, 0)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ").Error; err != nil {
			return err
		}

		var agg struct {
			Count int64
			Total int64
		}
		err := applyFilter(tx.Model(&expenseRow{}), ownerID, filter).
			Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total").
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate expenses: %w", err)
		}
		page.TotalCount = int(agg.Count)
		page.TotalAmount = models.AmountFromCents(agg.Total)

		q := applyFilter(tx.Model(&expenseRow{}), ownerID, filter).
			Order("date DESC").Order("created_at DESC").Order("seq DESC").
			Offset(filter.Offset)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}

		var rows []expenseRow
		if err := q.Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		for i := range rows {
			page.Expenses = append(page.Expenses, rows[i].toModel())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PostgresStore) CountExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&expenseRow{}).Where("date < ?", cutoff.Format(models.DateLayout)).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteExpensesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("date < ?", cutoff.Format(models.DateLayout)).Delete(&expenseRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expenses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// applyFilter scopes q to ownerID and narrows it by f.
func applyFilter(q *gorm.DB, ownerID string, f storage.ExpenseFilter) *gorm.DB {
	q = q.Where("user_id = ?", ownerID)

	if f.Category != "" {
		q = q.Where("category = ?", string(f.Category))
	}
	if !f.DateFrom.IsZero() {
		q = q.Where("date >= ?", f.DateFrom.Format(models.DateLayout))
	}
	if !f.DateTo.IsZero() {
		q = q.Where("date <= ?", f.DateTo.Format(models.DateLayout))
	}
	if f.Search != "" {
		q = q.Where(`(lower(description) LIKE lower(?) ESCAPE '\' OR `+amountText+` LIKE ? ESCAPE '\')`,
			storage.LikePattern(f.Search), storage.LikePattern(f.Search))
	}
	return q
}
