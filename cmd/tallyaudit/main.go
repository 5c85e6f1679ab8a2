package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/services"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "Store driver (postgres or redis)")
	flag.StringVar(&cfg.Postgres.Host, "db-host", cfg.Postgres.Host, "Database host")
	flag.StringVar(&cfg.Postgres.Port, "db-port", cfg.Postgres.Port, "Database port")
	flag.StringVar(&cfg.Postgres.User, "db-user", cfg.Postgres.User, "Database user")
	flag.StringVar(&cfg.Postgres.Password, "db-pass", cfg.Postgres.Password, "Database password")
	flag.StringVar(&cfg.Postgres.DB, "db-name", cfg.Postgres.DB, "Database name")
	flag.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")
	timeout := flag.Duration("timeout", 5*time.Minute, "Maximum run time")
	flag.Parse()

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	auditService := services.NewAuditService(store.Candidates, store.Users, logger)

	log.Println("Starting tally audit...")

	discrepancies, err := auditService.AuditAll(ctx)
	if err != nil {
		log.Fatalf("Error auditing tallies: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, d := range discrepancies {
		if err := enc.Encode(d); err != nil {
			log.Fatal(err)
		}
	}

	if len(discrepancies) > 0 {
		store.Close()
		log.Fatalf("Tally audit found %d discrepancies.", len(discrepancies))
	}
	log.Println("Tally audit completed successfully.")
}
