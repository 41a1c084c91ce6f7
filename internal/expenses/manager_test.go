package expenses

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/expensetracker/internal/events"
	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage/sqlite"
	"github.com/mmynk/expensetracker/internal/validation"
)

type fixture struct {
	manager  *Manager
	recorder *events.Recorder
	logs     *bytes.Buffer
	alice    string
	bob      string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	alice := models.NewUser("alice", "alice@example.com", "hash")
	bob := models.NewUser("bob", "bob@example.com", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	recorder := &events.Recorder{}

	return &fixture{
		manager:  NewManager(store, recorder, logger),
		recorder: recorder,
		logs:     &logs,
		alice:    alice.ID,
		bob:      bob.ID,
	}
}

func (f *fixture) create(t *testing.T, owner, amount, category, date, desc string) *models.Expense {
	t.Helper()

	m, err := f.manager.Create(context.Background(), owner, validation.ExpenseForm{
		Amount:      amount,
		Category:    category,
		Date:        date,
		Description: desc,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return m.Expense
}

func TestCreateRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	today := models.Today().Format(models.DateLayout)

	m, err := f.manager.Create(ctx, f.alice, validation.ExpenseForm{
		Amount:      "50.00",
		Category:    "FOOD",
		Date:        today,
		Description: "Lunch",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Message != MsgCreated {
		t.Errorf("Message = %q, want %q", m.Message, MsgCreated)
	}

	result, err := f.manager.List(ctx, f.alice, ListQuery{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(result.Expenses))
	}

	got := result.Expenses[0]
	if got.AmountString() != "50.00" || got.Category != models.CategoryFood ||
		got.Date.Format(models.DateLayout) != today || got.Description != "Lunch" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.UserID != f.alice {
		t.Errorf("owner = %s, want %s", got.UserID, f.alice)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v", got.CreatedAt, got.UpdatedAt)
	}

	evts := f.recorder.Events()
	if len(evts) != 1 || evts[0].Type != events.ExpenseCreated || evts[0].ExpenseID != got.ID {
		t.Errorf("unexpected events: %+v", evts)
	}
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "0.00", "-1", "-50.00"} {
		t.Run(amount, func(t *testing.T) {
			_, err := f.manager.Create(ctx, f.alice, validation.ExpenseForm{
				Amount:   amount,
				Category: "FOOD",
				Date:     "2025-01-15",
			})
			var verrs validation.Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation.Errors, got %v", err)
			}
			if _, ok := verrs[validation.FieldAmount]; !ok {
				t.Errorf("expected amount error, got %v", verrs)
			}
		})
	}

	result, _ := f.manager.List(ctx, f.alice, ListQuery{})
	if result.TotalCount != 0 {
		t.Errorf("rejected forms persisted %d records", result.TotalCount)
	}
	if len(f.recorder.Events()) != 0 {
		t.Error("rejected forms published events")
	}
}

func TestForeignRecordsAreNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bobs := f.create(t, f.bob, "75.00", "BILLS", "2025-01-20", "Electricity")

	if _, err := f.manager.Get(ctx, f.alice, bobs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}

	_, err := f.manager.Update(ctx, f.alice, bobs.ID, validation.ExpenseForm{
		Amount: "1.00", Category: "FOOD", Date: "2025-01-01", Description: "hijacked",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}

	// An invalid form against a foreign record still reads as not found.
	_, err = f.manager.Update(ctx, f.alice, bobs.ID, validation.ExpenseForm{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update with invalid form: expected ErrNotFound, got %v", err)
	}

	if _, err := f.manager.Delete(ctx, f.alice, bobs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}

	if _, err := f.manager.Get(ctx, f.alice, "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}

	got, err := f.manager.Get(ctx, f.bob, bobs.ID)
	if err != nil {
		t.Fatalf("owner Get failed: %v", err)
	}
	if got.AmountString() != "75.00" || got.Description != "Electricity" || !got.UpdatedAt.Equal(bobs.UpdatedAt) {
		t.Errorf("foreign requests modified the record: %+v", got)
	}
}

func TestEmptyOwnerIsUnauthenticated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	form := validation.ExpenseForm{Amount: "1.00", Category: "FOOD", Date: "2025-01-01"}

	if _, err := f.manager.List(ctx, "", ListQuery{}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("List: got %v", err)
	}
	if _, err := f.manager.Get(ctx, "", "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Get: got %v", err)
	}
	if _, err := f.manager.Create(ctx, "", form); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Create: got %v", err)
	}
	if _, err := f.manager.Update(ctx, "", "x", form); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Update: got %v", err)
	}
	if _, err := f.manager.Delete(ctx, "", "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Delete: got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.create(t, f.alice, "50.00", "FOOD", "2025-01-15", "Lunch")
	f.create(t, f.alice, "12.25", "FOOD", "2025-01-20", "Snacks")
	f.create(t, f.alice, "30.00", "TRANSPORT", "2025-01-10", "Taxi")
	f.create(t, f.alice, "100.00", "SHOPPING", "2025-02-01", "Shoes")
	f.create(t, f.bob, "999.00", "FOOD", "2025-01-15", "Bob's lunch")

	t.Run("never includes other owners", func(t *testing.T) {
		queries := []ListQuery{
			{},
			{Category: "FOOD"},
			{Search: "lunch"},
			{Search: "999"},
			{DateFrom: "2025-01-15", DateTo: "2025-01-15"},
		}
		for _, q := range queries {
			result, err := f.manager.List(ctx, f.alice, q)
			if err != nil {
				t.Fatalf("List(%+v) failed: %v", q, err)
			}
			for _, e := range result.Expenses {
				if e.UserID != f.alice {
					t.Errorf("List(%+v) leaked %s's record %s", q, e.UserID, e.ID)
				}
			}
		}
	})

	t.Run("category subset and total", func(t *testing.T) {
		result, err := f.manager.List(ctx, f.alice, ListQuery{Category: "FOOD"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(result.Expenses) != 2 {
			t.Fatalf("expected 2 FOOD expenses, got %d", len(result.Expenses))
		}
		for _, e := range result.Expenses {
			if e.Category != models.CategoryFood {
				t.Errorf("non-FOOD record in result: %s", e.Category)
			}
		}
		if models.FormatAmount(result.TotalAmount) != "62.25" {
			t.Errorf("TotalAmount = %s, want 62.25", result.TotalAmount)
		}
		if result.Selected.Category != "FOOD" {
			t.Errorf("Selected.Category = %q", result.Selected.Category)
		}
	})

	t.Run("All means no category filter", func(t *testing.T) {
		result, _ := f.manager.List(ctx, f.alice, ListQuery{Category: AllCategories})
		if result.TotalCount != 4 || models.FormatAmount(result.TotalAmount) != "192.25" {
			t.Errorf("got %d / %s, want 4 / 192.25", result.TotalCount, result.TotalAmount)
		}
		if result.Selected.Category != AllCategories {
			t.Errorf("Selected.Category = %q", result.Selected.Category)
		}
	})

	t.Run("inverted date range is empty", func(t *testing.T) {
		result, err := f.manager.List(ctx, f.alice, ListQuery{DateFrom: "2025-02-01", DateTo: "2025-01-01"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(result.Expenses) != 0 || !result.TotalAmount.IsZero() || result.TotalCount != 0 {
			t.Errorf("expected empty result, got %d records, total %s", len(result.Expenses), result.TotalAmount)
		}
	})

	t.Run("invalid date is ignored and logged", func(t *testing.T) {
		f.logs.Reset()
		result, err := f.manager.List(ctx, f.alice, ListQuery{DateFrom: "15/01/2025"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.TotalCount != 4 {
			t.Errorf("TotalCount = %d, want 4", result.TotalCount)
		}
		if result.Selected.DateFrom != "" {
			t.Errorf("Selected.DateFrom = %q, want empty", result.Selected.DateFrom)
		}
		if !strings.Contains(f.logs.String(), "level=WARN") {
			t.Errorf("expected a warning, logs:\n%s", f.logs.String())
		}
	})

	t.Run("search matches amount as rendered text", func(t *testing.T) {
		cases := map[string][]string{
			"50.00":   {"Lunch"},
			"12.2":    {"Snacks"},
			"100":     {"Shoes"},
			"0.00":    {"Shoes", "Lunch", "Taxi"},
			"LUNCH":   {"Lunch"},
			"nomatch": {},
		}
		for term, want := range cases {
			result, err := f.manager.List(ctx, f.alice, ListQuery{Search: term})
			if err != nil {
				t.Fatalf("List(%q) failed: %v", term, err)
			}
			var got []string
			for _, e := range result.Expenses {
				got = append(got, e.Description)
			}
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("search %q = %v, want %v", term, got, want)
			}
		}
	})
}

func TestListPagination(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.create(t, f.alice, "10.00", "OTHER", "2025-01-0"+string(rune('1'+i)), "")
	}

	result, err := f.manager.List(ctx, f.alice, ListQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Expenses) != 2 || !result.HasNext || result.Page != 2 {
		t.Errorf("page 2: %d items, has_next=%v, page=%d", len(result.Expenses), result.HasNext, result.Page)
	}
	if result.Expenses[0].Date.Format(models.DateLayout) != "2025-01-03" {
		t.Errorf("page 2 starts at %s, want 2025-01-03", result.Expenses[0].Date.Format(models.DateLayout))
	}

	result, _ = f.manager.List(ctx, f.alice, ListQuery{Page: 9, PageSize: 2})
	if len(result.Expenses) != 0 || result.HasNext || result.TotalCount != 5 || models.FormatAmount(result.TotalAmount) != "50.00" {
		t.Errorf("page past end: %d items, has_next=%v, totals %d/%s",
			len(result.Expenses), result.HasNext, result.TotalCount, result.TotalAmount)
	}

	for _, page := range []int{math.MaxInt, math.MaxInt/2 + 1} {
		result, err = f.manager.List(ctx, f.alice, ListQuery{Page: page, PageSize: 2})
		if err != nil {
			t.Fatalf("List(page=%d) failed: %v", page, err)
		}
		if len(result.Expenses) != 0 || result.HasNext || result.TotalCount != 5 || result.Page > math.MaxInt/MaxPageSize {
			t.Errorf("page=%d: %d items, has_next=%v, page echoed %d",
				page, len(result.Expenses), result.HasNext, result.Page)
		}
	}

	result, _ = f.manager.List(ctx, f.alice, ListQuery{PageSize: 1000})
	if result.PageSize != MaxPageSize {
		t.Errorf("PageSize = %d, want %d", result.PageSize, MaxPageSize)
	}

	result, _ = f.manager.WithPageSize(3).List(ctx, f.alice, ListQuery{})
	if result.PageSize != 3 || len(result.Expenses) != 3 || !result.HasNext {
		t.Errorf("default page size: %d/%d/%v", result.PageSize, len(result.Expenses), result.HasNext)
	}
}

func TestUpdateAdvancesUpdatedAt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.create(t, f.alice, "20.00", "FOOD", "2025-01-15", "Dinner")

	m, err := f.manager.Update(ctx, f.alice, e.ID, validation.ExpenseForm{
		Amount: "25.00", Category: "FOOD", Date: "2025-01-15", Description: "Dinner",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if m.Message != MsgUpdated {
		t.Errorf("Message = %q", m.Message)
	}

	got, _ := f.manager.Get(ctx, f.alice, e.ID)
	if got.AmountString() != "25.00" {
		t.Errorf("amount = %s, want 25.00", got.AmountString())
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", e.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.After(e.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", got.UpdatedAt, e.UpdatedAt)
	}

	t.Run("invalid form leaves record untouched", func(t *testing.T) {
		_, err := f.manager.Update(ctx, f.alice, e.ID, validation.ExpenseForm{
			Amount: "-5", Category: "FOOD", Date: "2025-01-15",
		})
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation.Errors, got %v", err)
		}
		after, _ := f.manager.Get(ctx, f.alice, e.ID)
		if after.AmountString() != "25.00" || !after.UpdatedAt.Equal(got.UpdatedAt) {
			t.Errorf("record modified by rejected update: %+v", after)
		}
	})
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.create(t, f.alice, "15.00", "ENTERTAINMENT", "2025-01-15", "Movie")
	f.create(t, f.alice, "5.00", "FOOD", "2025-01-15", "Popcorn")

	m, err := f.manager.Delete(ctx, f.alice, e.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if m.Message != MsgDeleted || m.Expense.ID != e.ID {
		t.Errorf("unexpected mutation: %+v", m)
	}

	result, _ := f.manager.List(ctx, f.alice, ListQuery{})
	for _, got := range result.Expenses {
		if got.ID == e.ID {
			t.Error("deleted record still listed")
		}
	}
	if result.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", result.TotalCount)
	}

	if _, err := f.manager.Delete(ctx, f.alice, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("repeat delete: expected ErrNotFound, got %v", err)
	}

	evts := f.recorder.Events()
	last := evts[len(evts)-1]
	if last.Type != events.ExpenseDeleted || last.ExpenseID != e.ID {
		t.Errorf("last event = %+v", last)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := setup(t)
	f.recorder.Err = errors.New("broker down")

	m, err := f.manager.Create(context.Background(), f.alice, validation.ExpenseForm{
		Amount: "9.99", Category: "OTHER", Date: "2025-03-01",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.manager.Get(context.Background(), f.alice, m.Expense.ID); err != nil {
		t.Errorf("record not stored: %v", err)
	}
	if !strings.Contains(f.logs.String(), "Failed to publish event") {
		t.Error("publish failure was not logged")
	}
}

func TestListSearchNonASCII(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.create(t, f.alice, "4.80", "FOOD", "2025-03-01", "CAFÉ CRÈME")
	f.create(t, f.alice, "3.00", "FOOD", "2025-03-02", "Tea")

	for _, term := range []string{"CRÈME", "crème", "CAFÉ"} {
		result, err := f.manager.List(ctx, f.alice, ListQuery{Search: term})
		if err != nil {
			t.Fatalf("List(%q) failed: %v", term, err)
		}
		if result.TotalCount != 1 || models.FormatAmount(result.TotalAmount) != "4.80" {
			t.Errorf("List(%q): %d results totalling %s, want 1 totalling 4.80",
				term, result.TotalCount, result.TotalAmount)
		}
	}
}
