package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mmynk/expensetracker/internal/events"
)

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e := events.New(events.ExpenseDeleted, "exp-1", "user-1", "Expense deleted successfully!")
	if err := logEvent(logger)(context.Background(), e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"type=expense.deleted", "expense_id=exp-1", "user_id=user-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in log line %q", want, out)
		}
	}
}
