// Package main runs the token ledger server: the HTTP JSON API, the
// Prometheus metrics endpoint and the WebSocket notice feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-ledger/internal/domain"
	"token-ledger/internal/httpapi"
	"token-ledger/internal/ledger"
	"token-ledger/internal/notify"
	"token-ledger/internal/observability"
	"token-ledger/internal/storage"
	chstore "token-ledger/internal/storage/clickhouse"
	"token-ledger/internal/storage/memory"
	pgstore "token-ledger/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to disable the audit sink)")
	owner := flag.String("owner", envOr("LEDGER_OWNER", ""), "Ledger owner principal")
	swapAccount := flag.String("swap-account", os.Getenv("SWAP_ACCOUNT"), "Swap counterpart account (defaults to the package default)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	shutdownTimeout := flag.Duration("shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *owner == "" {
		logger.Fatal("--owner is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	store, noticeStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Notice fan-out: log, WebSocket hub, optional ClickHouse sink.
	hub := notify.NewHub(nil, log.New(os.Stdout, "[hub] ", log.LstdFlags))
	defer hub.Close()

	notifiers := notify.Multi{
		notify.NewLogNotifier(log.New(os.Stdout, "[notice] ", log.LstdFlags)),
		hub,
	}
	if noticeStore != nil {
		notifiers = append(notifiers, notify.NewSinkNotifier(noticeStore, logger))
	}

	l := ledger.New(store, ledger.Options{
		Owner:           domain.Account(*owner),
		SwapCounterpart: domain.Account(*swapAccount),
		Notifier:        notifiers,
	})
	logger.Printf("Ledger owner=%s swap=%s", l.Owner(), l.SwapCounterpart())

	// Build routes
	mux := http.NewServeMux()
	api := httpapi.New(l, log.New(os.Stdout, "[httpapi] ", log.LstdFlags))
	api.Register(mux)
	if q, ok := noticeStore.(storage.NoticeQuerier); ok {
		api.RegisterNotices(mux, q)
	}
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/v1/notices/ws", hub)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"owner":          l.Owner(),
			"swap":           l.SwapCounterpart(),
			"ws_subscribers": hub.ClientCount(),
			"storage":        storageKind(*useMemory),
		})
	})

	srv := &http.Server{
		Addr:        *listenAddr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: WebSocket connections stay open.
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer shutdownCancel()

		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()

		// Second signal forces immediate exit.
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the ledger store and the optional notice sink.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (storage.Store, storage.NoticeStore, func(), error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return memory.New(), memory.NewNoticeStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { pool.Close() }

	var noticeStore storage.NoticeStore
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		noticeStore = chstore.NewNoticeStore(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
	}

	return pgstore.NewStore(pool), noticeStore, cleanup, nil
}

func storageKind(useMemory bool) string {
	if useMemory {
		return "memory"
	}
	return "postgres"
}

// envOr returns the env var value, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
