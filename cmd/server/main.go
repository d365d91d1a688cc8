/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vacation policy engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Build the evaluator and scheduler
  4. Configure HTTP router
  5. Start server + cron loop with graceful shutdown

CONFIGURATION:
  Flags override environment variables:
    -port / PORT        HTTP server port (default: 8080)
    -db   / DB_PATH     SQLite database path (default: vacation.db)
                        Use ":memory:" for in-memory database
    -cron / CRON_SPEC   Scheduler cadence (default: "@hourly")

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the cron loop, waiting for a running pass
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/vacation.db"

  # Run with in-memory database, evaluating every minute
  ./server -db=":memory:" -cron="@every 1m"

SEE ALSO:
  - api/server.go: Router configuration
  - scheduler/scheduler.go: Grant evaluation loop
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/scheduler"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func main() {
	// .env is optional; flags win over environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "vacation.db"), "SQLite database path")
	cronSpec := flag.String("cron", envStr("CRON_SPEC", "@hourly"), "scheduler cron spec")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Build the engine
	evaluator := vacation.NewEvaluator(store.Schedules(), store.Grants())
	sched := scheduler.New(store.Policies(), evaluator)
	if err := sched.Start(*cronSpec); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create router
	handler := api.NewHandler(store.Policies(), store.Grants(), evaluator, sched)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
