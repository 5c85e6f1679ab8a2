package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/config"
)

// Usage: migrations [-dir path] <name|up|down>
//
// A name runs the single file whose name ends in <name>.sql. "up" runs every
// *.up.sql file in order, "down" every *.down.sql file in reverse order.
func main() {
	var dir string
	flag.StringVar(&dir, "dir", filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations"), "Migrations directory")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("a migration name is required.")
	}
	target := flag.Arg(0)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := postgres.Open(context.Background(), cfg.Postgres.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	files, err := migrationFiles(dir, target)
	if err != nil {
		log.Fatal(err)
	}

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Fatal(err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatalf("Failed to execute SQL file %s: %v", name, err)
		}
		fmt.Printf("Migration %s executed successfully.\n", name)
	}
}

func migrationFiles(dir, target string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	switch target {
	case "up", "down":
		suffix := "." + target + ".sql"
		var matched []string
		for _, n := range names {
			if strings.HasSuffix(n, suffix) {
				matched = append(matched, n)
			}
		}
		if target == "down" {
			sort.Sort(sort.Reverse(sort.StringSlice(matched)))
		}
		return matched, nil
	}

	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(target)))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	for _, n := range names {
		if pattern.MatchString(n) {
			return []string{n}, nil
		}
	}
	return nil, fmt.Errorf("migration file not found")
}
