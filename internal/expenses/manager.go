// Package expenses orchestrates owner-scoped expense operations.
//
// Every Manager method takes the acting user explicitly. Records that are
// missing and records owned by someone else produce the same ErrNotFound.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mmynk/expensetracker/internal/events"
	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
	"github.com/mmynk/expensetracker/internal/validation"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("expense not found")
)

// Notifications returned after a successful mutation.
const (
	MsgCreated = "Expense added successfully!"
	MsgUpdated = "Expense updated successfully!"
	MsgDeleted = "Expense deleted successfully!"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// maxPage keeps page*pageSize within int.
	maxPage = math.MaxInt / MaxPageSize
)

// Mutation is the outcome of a create, update or delete.
type Mutation struct {
	Expense *models.Expense
	Message string
}

// Manager implements list, get, create, update and delete over an ExpenseStore.
type Manager struct {
	store     storage.ExpenseStore
	publisher events.Publisher
	logger    *slog.Logger
	pageSize  int
}

// NewManager creates a Manager. A nil publisher discards events and a nil
// logger uses slog.Default().
func NewManager(store storage.ExpenseStore, publisher events.Publisher, logger *slog.Logger) *Manager {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		publisher: publisher,
		logger:    logger,
		pageSize:  DefaultPageSize,
	}
}

// WithPageSize returns a copy using n as the default page size, capped at MaxPageSize.
func (m *Manager) WithPageSize(n int) *Manager {
	c := *m
	c.pageSize = clampPageSize(n, DefaultPageSize)
	return &c
}

// List returns one page of owner's expenses narrowed by q, with the total
// amount and count of every match.
func (m *Manager) List(ctx context.Context, owner string, q ListQuery) (*ListResult, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	filter, selected := m.buildFilter(ctx, q)
	page := min(max(q.Page, 1), maxPage)
	pageSize := clampPageSize(q.PageSize, m.pageSize)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	result, err := m.store.ListExpenses(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	return &ListResult{
		Expenses:    result.Expenses,
		TotalAmount: result.TotalAmount,
		TotalCount:  result.TotalCount,
		Page:        page,
		PageSize:    pageSize,
		HasNext:     page*pageSize < result.TotalCount,
		Selected:    selected,
	}, nil
}

// Get returns one of owner's expenses.
func (m *Manager) Get(ctx context.Context, owner, id string) (*models.Expense, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	expense, err := m.store.GetExpense(ctx, owner, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return expense, nil
}

// Create validates form and stores a new expense owned by owner.
// Returns validation.Errors when the form is rejected.
func (m *Manager) Create(ctx context.Context, owner string, form validation.ExpenseForm) (*Mutation, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	in, err := validation.ValidateExpense(form)
	if err != nil {
		return nil, err
	}

	expense := models.NewExpense(owner, in)
	if err := m.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	m.logger.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"user_id", owner,
		"amount", expense.AmountString(),
		"category", expense.Category,
	)
	return m.notify(ctx, events.ExpenseCreated, expense, MsgCreated), nil
}

// Update replaces amount, category, date and description of one of owner's expenses.
func (m *Manager) Update(ctx context.Context, owner, id string, form validation.ExpenseForm) (*Mutation, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	expense, err := m.store.GetExpense(ctx, owner, id)
	if err != nil {
		return nil, translate(err, id)
	}

	in, err := validation.ValidateExpense(form)
	if err != nil {
		return nil, err
	}

	expense.Apply(in)
	if err := m.store.UpdateExpense(ctx, expense); err != nil {
		return nil, translate(err, id)
	}

	m.logger.InfoContext(ctx, "Expense updated", "expense_id", id, "user_id", owner)
	return m.notify(ctx, events.ExpenseUpdated, expense, MsgUpdated), nil
}

// Delete permanently removes one of owner's expenses. The returned Mutation
// carries the record as it was before deletion.
func (m *Manager) Delete(ctx context.Context, owner, id string) (*Mutation, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	expense, err := m.store.GetExpense(ctx, owner, id)
	if err != nil {
		return nil, translate(err, id)
	}

	if err := m.store.DeleteExpense(ctx, owner, id); err != nil {
		return nil, translate(err, id)
	}

	m.logger.InfoContext(ctx, "Expense deleted", "expense_id", id, "user_id", owner)
	return m.notify(ctx, events.ExpenseDeleted, expense, MsgDeleted), nil
}

// notify publishes the event for a completed mutation. The record is already
// stored, so a publish failure is only logged.
func (m *Manager) notify(ctx context.Context, typ events.Type, expense *models.Expense, msg string) *Mutation {
	if err := m.publisher.Publish(ctx, events.New(typ, expense.ID, expense.UserID, msg)); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish event",
			"type", typ,
			"expense_id", expense.ID,
			"error", err,
		)
	}
	return &Mutation{Expense: expense, Message: msg}
}

func translate(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("expense %s: %w", id, err)
}

func clampPageSize(n, fallback int) int {
	switch {
	case n <= 0:
		return fallback
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
