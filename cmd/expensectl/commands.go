package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expensetracker/internal/auth"
	"github.com/mmynk/expensetracker/internal/expenses"
	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
	"github.com/mmynk/expensetracker/internal/validation"
)

const seedPassword = "testpass123"

var seedDescriptions = []string{
	"Grocery shopping",
	"Gas station",
	"Restaurant dinner",
	"Coffee shop",
	"Online shopping",
	"Uber ride",
	"Electricity bill",
	"Movie tickets",
	"Gym membership",
	"Book purchase",
}

// exportCommand writes every expense of username to a CSV file, newest first.
func exportCommand(ctx context.Context, store storage.Store, username, output string, out io.Writer) error {
	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q does not exist", username)
	}

	page, err := store.ListExpenses(ctx, user.ID, storage.ExpenseFilter{})
	if err != nil {
		return err
	}
	if len(page.Expenses) == 0 {
		fmt.Fprintf(out, "No expenses found for user %s\n", username)
		return nil
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	if err := writeCSV(f, page.Expenses); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(out, "Successfully exported %d expenses to %s\n", len(page.Expenses), output)
	return nil
}

func writeCSV(w io.Writer, list []*models.Expense) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Date", "Amount", "Category", "Description"})
	for _, e := range list {
		cw.Write([]string{
			e.Date.Format(models.DateLayout),
			e.AmountString(),
			e.Category.Label(),
			e.Description,
		})
	}
	cw.Flush()
	return cw.Error()
}

// cleanupCommand deletes expenses of every user dated before today minus days.
func cleanupCommand(ctx context.Context, store storage.Store, days int, dryRun bool, out io.Writer) error {
	cutoff := models.Today().AddDate(0, 0, -days)

	count, err := store.CountExpensesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintf(out, "No expenses older than %d days found\n", days)
		return nil
	}

	if dryRun {
		fmt.Fprintf(out, "DRY RUN: Would delete %d expenses older than %d days (before %s)\n",
			count, days, cutoff.Format(models.DateLayout))
		return nil
	}

	deleted, err := store.DeleteExpensesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Successfully deleted %d expenses older than %d days\n", deleted, days)
	return nil
}

func newRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1))
}

// seedCommand creates testuserN accounts and random expenses from the last 90 days.
// Existing test users are reused.
func seedCommand(ctx context.Context, store storage.Store, logger *slog.Logger, numUsers, perUser int, rng *rand.Rand, out io.Writer) error {
	authenticator := auth.NewPasswordAuthenticator(store)
	manager := expenses.NewManager(store, nil, logger)

	owners := make([]*models.User, 0, numUsers)
	for i := 1; i <= numUsers; i++ {
		username := fmt.Sprintf("testuser%d", i)
		user, err := store.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			user, err = authenticator.Register(ctx, username, username+"@example.com", seedPassword, seedPassword)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", username, err)
			}
			fmt.Fprintf(out, "Created user: %s\n", username)
		}
		owners = append(owners, user)
	}

	created := 0
	for _, user := range owners {
		for range perUser {
			if _, err := manager.Create(ctx, user.ID, randomForm(rng)); err != nil {
				return fmt.Errorf("failed to create expense for %s: %w", user.Username, err)
			}
			created++
		}
	}

	fmt.Fprintf(out, "Successfully created %d users and %d expenses\n", len(owners), created)
	return nil
}

// randomForm builds a valid form: amount 5.00 to 500.00, date within the last 90 days.
func randomForm(rng *rand.Rand) validation.ExpenseForm {
	cents := int64(500 + rng.IntN(49501))
	date := models.Today().AddDate(0, 0, -rng.IntN(91))
	return validation.ExpenseForm{
		Amount:      models.FormatAmount(decimal.New(cents, -2)),
		Category:    string(models.Categories[rng.IntN(len(models.Categories))]),
		Date:        date.Format(models.DateLayout),
		Description: seedDescriptions[rng.IntN(len(seedDescriptions))],
	}
}
