// Command expensectl runs maintenance tasks against the expense database.
//
//	expensectl export  --user=NAME [--output=expenses.csv]
//	expensectl cleanup [--days=365] [--dry-run]
//	expensectl seed    [--users=5] [--expenses=50]
//
// Storage is selected with the same environment variables as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmynk/expensetracker/internal/backend"
	"github.com/mmynk/expensetracker/internal/config"
	"github.com/mmynk/expensetracker/internal/storage"
	"github.com/mmynk/expensetracker/pkg/logging"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: expensectl <export|cleanup|seed> [flags]")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	if err := run(context.Background(), cfg, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)

	switch cmd {
	case "export":
		user := fs.String("user", "", "Username to export expenses for (required)")
		output := fs.String("output", "expenses.csv", "Output CSV file path")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *user == "" {
			return fmt.Errorf("--user is required")
		}
		return withStore(cfg, logger, func(store storage.Store) error {
			return exportCommand(ctx, store, *user, *output, out)
		})

	case "cleanup":
		days := fs.Int("days", 365, "Delete expenses older than this many days")
		dryRun := fs.Bool("dry-run", false, "Show what would be deleted without deleting")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *days < 0 {
			return fmt.Errorf("--days must not be negative")
		}
		return withStore(cfg, logger, func(store storage.Store) error {
			return cleanupCommand(ctx, store, *days, *dryRun, out)
		})

	case "seed":
		users := fs.Int("users", 5, "Number of test users to create")
		perUser := fs.Int("expenses", 50, "Number of expenses per user")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *users < 0 || *perUser < 0 {
			return fmt.Errorf("--users and --expenses must not be negative")
		}
		return withStore(cfg, logger, func(store storage.Store) error {
			return seedCommand(ctx, store, logger, *users, *perUser, newRand(), out)
		})

	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func withStore(cfg *config.Config, logger *slog.Logger, fn func(storage.Store) error) error {
	store, err := backend.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
