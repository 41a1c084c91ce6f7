package service

import (
	"time"

	"github.com/mmynk/expensetracker/internal/expenses"
	"github.com/mmynk/expensetracker/internal/models"
)

// Expense is the wire form of an expense record.
type Expense struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	Date          string    `json:"date"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CategoryOption is one entry of the category catalogue.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filters echoes the filters a listing was computed with.
type Filters struct {
	Category string `json:"category"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Search   string `json:"search,omitempty"`
}

type ListExpensesRequest struct {
	Category string `json:"category,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type ListExpensesResponse struct {
	Expenses    []Expense        `json:"expenses"`
	TotalAmount string           `json:"total_amount"`
	TotalCount  int              `json:"total_count"`
	Page        int              `json:"page"`
	PageSize    int              `json:"page_size"`
	HasNext     bool             `json:"has_next"`
	Selected    Filters          `json:"selected"`
	Categories  []CategoryOption `json:"categories"`
}

type GetExpenseRequest struct {
	ID string `json:"id"`
}

type GetExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type CreateExpenseRequest struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
	Message string  `json:"message"`
}

type UpdateExpenseRequest struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
	Message string  `json:"message"`
}

type DeleteExpenseRequest struct {
	ID string `json:"id"`
}

type DeleteExpenseResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

func expenseToAPI(e *models.Expense) Expense {
	return Expense{
		ID:            e.ID,
		Amount:        e.AmountString(),
		Category:      string(e.Category),
		CategoryLabel: e.Category.Label(),
		Date:          e.Date.Format(models.DateLayout),
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func userToAPI(u *models.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func categoryCatalogue() []CategoryOption {
	opts := make([]CategoryOption, len(models.Categories))
	for i, c := range models.Categories {
		opts[i] = CategoryOption{Value: string(c), Label: c.Label()}
	}
	return opts
}

func listResultToAPI(r *expenses.ListResult) *ListExpensesResponse {
	resp := &ListExpensesResponse{
		Expenses:    make([]Expense, len(r.Expenses)),
		TotalAmount: models.FormatAmount(r.TotalAmount),
		TotalCount:  r.TotalCount,
		Page:        r.Page,
		PageSize:    r.PageSize,
		HasNext:     r.HasNext,
		Selected: Filters{
			Category: r.Selected.Category,
			DateFrom: r.Selected.DateFrom,
			DateTo:   r.Selected.DateTo,
			Search:   r.Selected.Search,
		},
		Categories: categoryCatalogue(),
	}
	for i, e := range r.Expenses {
		resp.Expenses[i] = expenseToAPI(e)
	}
	return resp
}
