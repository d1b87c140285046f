// Package main applies the embedded database migrations: the PostgreSQL
// ledger schema and the ClickHouse notice table.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"token-ledger/internal/storage/migrations"
	pgstore "token-ledger/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to skip)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall migration timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags)

	if *postgresDSN == "" && *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn or --clickhouse-dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("PostgreSQL migrations failed: %v", err)
		}
		pool.Close()
		logger.Println("PostgreSQL migrations applied")
	}

	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("ClickHouse migrations failed: %v", err)
		}
		conn.Close()
		logger.Println("ClickHouse migrations applied")
	}
}
