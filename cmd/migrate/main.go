// Command migrate applies the SQL files in migrations/ (or the directory
// given as the first argument) in lexical order, one transaction per file.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		log.Fatalf("list %s: %v", dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	failed := 0
	for _, path := range files {
		if err := applyFile(db, path); err != nil {
			log.Printf("%s: %v", filepath.Base(path), err)
			failed++
			continue
		}
		log.Printf("%s: ok", filepath.Base(path))
	}
	if failed > 0 {
		log.Fatalf("%d of %d migrations failed", failed, len(files))
	}
	log.Printf("applied %d migrations", len(files))
}

func applyFile(db *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(data)); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec: %w", err)
	}
	return tx.Commit()
}
