/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize structured logger
  3. Initialize SQLite store and seed default categories
  4. Wire workflow, ledger, and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leave.db)
           Use ":memory:" for an in-memory database
  -seed    Seed default leave categories on startup (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	seed := flag.Bool("seed", true, "Seed default leave categories on startup")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	if *seed {
		if err := seedCategories(context.Background(), store); err != nil {
			logger.Warn("failed to seed categories", zap.Error(err))
		}
	}

	// Wire domain services
	workflow := leave.NewWorkflow(store, logger)
	ledger := leave.NewBalanceLedger(store, logger)
	handler := api.NewHandler(store, workflow, ledger)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// seedCategories inserts the standard category catalog if missing. Existing
// rows keep their configured values.
func seedCategories(ctx context.Context, store leave.TxStore) error {
	defaults := []leave.Category{
		{ID: "vacation", Name: "Vacation", DefaultAllotment: decimal.NewFromInt(20), RequiresApproval: true, Color: "#3b82f6"},
		{ID: "sick", Name: "Sick Leave", DefaultAllotment: decimal.NewFromInt(10), RequiresApproval: false, Color: "#ef4444"},
		{ID: "personal", Name: "Personal Days", DefaultAllotment: decimal.NewFromInt(5), RequiresApproval: true, Color: "#8b5cf6"},
	}

	return store.WithTx(ctx, func(s leave.Store) error {
		for _, c := range defaults {
			existing, err := s.GetCategory(ctx, c.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := s.SaveCategory(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}
