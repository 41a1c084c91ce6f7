package backend

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mmynk/expensetracker/internal/config"
	"github.com/mmynk/expensetracker/internal/events"
	"github.com/mmynk/expensetracker/internal/storage/sqlite"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenStore(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendSQLite, DBPath: filepath.Join(t.TempDir(), "nested", "x.db")}

	store, err := OpenStore(cfg, discard)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*sqlite.SQLiteStore); !ok {
		t.Errorf("got %T, want *sqlite.SQLiteStore", store)
	}

	if _, err := OpenStore(&config.Config{DataBackend: "mongo"}, discard); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpenPublisherWithoutAMQP(t *testing.T) {
	p := OpenPublisher(&config.Config{}, discard)
	if _, ok := p.Publisher.(events.NoopPublisher); !ok {
		t.Errorf("got %T, want NoopPublisher", p.Publisher)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}
