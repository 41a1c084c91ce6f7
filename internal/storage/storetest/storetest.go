// Package storetest is a behaviour suite every storage.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

// Run exercises store. It creates its own users with unique names so it can
// share a database with other data.
func Run(t *testing.T, store storage.Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	newUser := func(name string) *models.User {
		t.Helper()
		u := models.NewUser(name+"-"+suffix, name+"-"+suffix+"@example.com", "hash")
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		return u
	}
	alice := newUser("alice")
	bob := newUser("bob")

	add := func(owner *models.User, amount string, c models.Category, date, desc string) *models.Expense {
		t.Helper()
		d, _ := models.ParseDate(date)
		e := &models.Expense{
			UserID:      owner.ID,
			Amount:      decimal.RequireFromString(amount),
			Category:    c,
			Date:        d,
			Description: desc,
		}
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		return e
	}

	t.Run("users", func(t *testing.T) {
		got, err := store.GetUserByUsername(ctx, alice.Username)
		if err != nil || got == nil || got.ID != alice.ID {
			t.Fatalf("GetUserByUsername = %v, %v", got, err)
		}
		if got, err := store.GetUserByEmail(ctx, "nobody-"+suffix+"@example.com"); got != nil || err != nil {
			t.Errorf("missing email = %v, %v; want nil, nil", got, err)
		}
		dup := models.NewUser(alice.Username, "x-"+suffix+"@example.com", "hash")
		if err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate username: got %v, want ErrConflict", err)
		}
	})

	lunch := add(alice, "50.00", models.CategoryFood, "2025-01-15", "Lunch")
	add(alice, "30.00", models.CategoryTransport, "2025-01-10", "Taxi")
	add(alice, "12.50", models.CategoryFood, "2025-02-01", "Coffee_beans")
	add(bob, "999.00", models.CategoryFood, "2025-01-15", "Bob lunch")

	t.Run("get is owner scoped", func(t *testing.T) {
		got, err := store.GetExpense(ctx, alice.ID, lunch.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.AmountString() != "50.00" || got.Date.Format(models.DateLayout) != "2025-01-15" {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if !got.CreatedAt.Equal(got.UpdatedAt) {
			t.Errorf("created_at %v != updated_at %v", got.CreatedAt, got.UpdatedAt)
		}
		if _, err := store.GetExpense(ctx, bob.ID, lunch.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("foreign get: got %v, want ErrNotFound", err)
		}
	})

	t.Run("list filters and totals", func(t *testing.T) {
		from, _ := models.ParseDate("2025-02-01")
		to, _ := models.ParseDate("2025-01-01")

		cases := []struct {
			name   string
			filter storage.ExpenseFilter
			count  int
			total  string
		}{
			{"all", storage.ExpenseFilter{}, 3, "92.50"},
			{"category", storage.ExpenseFilter{Category: models.CategoryFood}, 2, "62.50"},
			{"inverted range", storage.ExpenseFilter{DateFrom: from, DateTo: to}, 0, "0.00"},
			{"search text", storage.ExpenseFilter{Search: "LUNCH"}, 1, "50.00"},
			{"search amount", storage.ExpenseFilter{Search: "2.5"}, 1, "12.50"},
			{"underscore literal", storage.ExpenseFilter{Search: "e_b"}, 1, "12.50"},
		}
		for _, tc := range cases {
			page, err := store.ListExpenses(ctx, alice.ID, tc.filter)
			if err != nil {
				t.Fatalf("%s: ListExpenses failed: %v", tc.name, err)
			}
			if page.TotalCount != tc.count || len(page.Expenses) != tc.count || models.FormatAmount(page.TotalAmount) != tc.total {
				t.Errorf("%s: got %d/%d/%s, want %d/%s", tc.name,
					page.TotalCount, len(page.Expenses), page.TotalAmount, tc.count, tc.total)
			}
			for _, e := range page.Expenses {
				if e.UserID != alice.ID {
					t.Errorf("%s: leaked record of %s", tc.name, e.UserID)
				}
			}
		}

		page, _ := store.ListExpenses(ctx, alice.ID, storage.ExpenseFilter{})
		want := []string{"Coffee_beans", "Lunch", "Taxi"}
		for i, e := range page.Expenses {
			if e.Description != want[i] {
				t.Errorf("order[%d] = %q, want %q", i, e.Description, want[i])
			}
		}

		page, _ = store.ListExpenses(ctx, alice.ID, storage.ExpenseFilter{Limit: 1, Offset: 1})
		if len(page.Expenses) != 1 || page.Expenses[0].Description != "Lunch" || page.TotalCount != 3 {
			t.Errorf("paged listing wrong: %d items, total %d", len(page.Expenses), page.TotalCount)
		}
	})

	t.Run("update", func(t *testing.T) {
		e := add(alice, "20.00", models.CategoryOther, "2025-03-01", "before")
		created := e.CreatedAt

		foreign := *e
		foreign.UserID = bob.ID
		if err := store.UpdateExpense(ctx, &foreign); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("foreign update: got %v, want ErrNotFound", err)
		}

		e.Amount = decimal.RequireFromString("21.00")
		if err := store.UpdateExpense(ctx, e); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		got, _ := store.GetExpense(ctx, alice.ID, e.ID)
		if got.AmountString() != "21.00" || !got.CreatedAt.Equal(created) || !got.UpdatedAt.After(created) {
			t.Errorf("after update: %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		e := add(alice, "1.00", models.CategoryOther, "2025-03-02", "gone")
		if err := store.DeleteExpense(ctx, bob.ID, e.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("foreign delete: got %v, want ErrNotFound", err)
		}
		if err := store.DeleteExpense(ctx, alice.ID, e.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, alice.ID, e.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("repeat delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("cleanup before cutoff", func(t *testing.T) {
		add(alice, "3.00", models.CategoryOther, "1999-12-31", "ancient")
		cutoff, _ := models.ParseDate("2000-01-01")

		n, err := store.CountExpensesBefore(ctx, cutoff)
		if err != nil || n < 1 {
			t.Fatalf("CountExpensesBefore = %d, %v", n, err)
		}
		deleted, err := store.DeleteExpensesBefore(ctx, cutoff)
		if err != nil || deleted != n {
			t.Fatalf("DeleteExpensesBefore = %d, %v; want %d", deleted, err, n)
		}
		if n, _ := store.CountExpensesBefore(ctx, cutoff); n != 0 {
			t.Errorf("%d old expenses remain", n)
		}
	})

}
