//go:build integration

package postgres

import (
	"os"
	"testing"

	"github.com/mmynk/expensetracker/internal/storage/storetest"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/storage/postgres
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	storetest.Run(t, store)
}
