package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/pkg/config"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status>")
	}

	cfg, err := config.Load("geoguard-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	files, err := migrationFiles(migrationsDir)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db, files)
	case "status":
		printStatus(ctx, db, files)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// migrationFiles returns the .sql files of dir in lexical order.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func applied(ctx context.Context, db *postgres.DB, name string) bool {
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM schema_migrations WHERE name = $1`, name).Scan(&n)
	return err == nil && n > 0
}

// runMigrations applies each pending file in its own transaction.
func runMigrations(ctx context.Context, db *postgres.DB, files []string) {
	for _, f := range files {
		name := filepath.Base(f)
		if applied(ctx, db, name) {
			fmt.Printf("--  %s\n", name)
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			log.Fatalf("exec %s: %v", name, err)
		}

		fmt.Printf("OK  %s\n", name)
	}

	log.Println("all migrations applied")
}

func printStatus(ctx context.Context, db *postgres.DB, files []string) {
	for _, f := range files {
		name := filepath.Base(f)
		state := "pending"
		if applied(ctx, db, name) {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, name)
	}
}
