// setup-db creates and seeds the demo SQLite sales database.
//
// The engine provisions a sqlite datasource automatically at startup;
// this script does the same thing standalone, for preparing a database
// file ahead of time or resetting one that has drifted.
//
// Usage: go run ./scripts/setup-db [flags]
//
// Flags:
//
//	-db      Path of the SQLite database file (default: sales.db)
//	-reset   Delete the database file first and rebuild it from scratch
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/provision"
)

func main() {
	dbPath := flag.String("db", "sales.db", "Path of the SQLite database file")
	reset := flag.Bool("reset", false, "Delete the database file first and rebuild it")
	flag.Parse()

	if err := run(*dbPath, *reset); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath string, reset bool) error {
	if reset {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", dbPath, err)
		}
		fmt.Printf("Removed existing database at %s\n", dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := provision.Setup(context.Background(), db, logger); err != nil {
		return fmt.Errorf("provision %s: %w", dbPath, err)
	}

	fmt.Printf("Database ready at %s\n", dbPath)
	return nil
}
