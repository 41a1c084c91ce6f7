package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expensetracker/internal/expenses"
	"github.com/mmynk/expensetracker/internal/middleware"
	"github.com/mmynk/expensetracker/internal/validation"
)

// ExpenseService implements the ExpenseService RPC interface on top of an
// expenses.Manager. The acting user comes from the auth interceptor.
type ExpenseService struct {
	manager *expenses.Manager
	logger  *slog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(manager *expenses.Manager, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{manager: manager, logger: logger}
}

// ListExpenses returns a filtered page of the caller's expenses.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	result, err := s.manager.List(ctx, middleware.GetUserID(ctx), expenses.ListQuery{
		Category: req.Msg.Category,
		DateFrom: req.Msg.DateFrom,
		DateTo:   req.Msg.DateTo,
		Search:   req.Msg.Search,
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		return nil, expenseError(ctx, s.logger, err)
	}

	return connect.NewResponse(listResultToAPI(result)), nil
}

// GetExpense returns one of the caller's expenses.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	expense, err := s.manager.Get(ctx, middleware.GetUserID(ctx), req.Msg.ID)
	if err != nil {
		return nil, expenseError(ctx, s.logger, err)
	}

	return connect.NewResponse(&GetExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// CreateExpense validates and stores a new expense for the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	m, err := s.manager.Create(ctx, middleware.GetUserID(ctx), validation.ExpenseForm{
		Amount:      req.Msg.Amount,
		Category:    req.Msg.Category,
		Date:        req.Msg.Date,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, expenseError(ctx, s.logger, err)
	}

	return connect.NewResponse(&CreateExpenseResponse{
		Expense: expenseToAPI(m.Expense),
		Message: m.Message,
	}), nil
}

// UpdateExpense replaces the editable fields of one of the caller's expenses.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	m, err := s.manager.Update(ctx, middleware.GetUserID(ctx), req.Msg.ID, validation.ExpenseForm{
		Amount:      req.Msg.Amount,
		Category:    req.Msg.Category,
		Date:        req.Msg.Date,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, expenseError(ctx, s.logger, err)
	}

	return connect.NewResponse(&UpdateExpenseResponse{
		Expense: expenseToAPI(m.Expense),
		Message: m.Message,
	}), nil
}

// DeleteExpense removes one of the caller's expenses.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	m, err := s.manager.Delete(ctx, middleware.GetUserID(ctx), req.Msg.ID)
	if err != nil {
		return nil, expenseError(ctx, s.logger, err)
	}

	return connect.NewResponse(&DeleteExpenseResponse{
		ID:      m.Expense.ID,
		Message: m.Message,
	}), nil
}
