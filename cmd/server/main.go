/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the delivery promise engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler (+ optional webhook notifier, demo fixtures)
  4. Start the inventory sync scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: engine.db, ":memory:" works)
  -sync-interval  Inventory sync interval (default: 10m, 0 disables)
  -webhook        Chat incoming-webhook URL for alerts (default: log only)
  -demo           Seed demo fixtures on start

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop the scheduler, stop accepting connections, wait
  for active requests (30s timeout), close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: The sync job
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

	"github.com/hakobune/delivery-engine/api"
	"github.com/hakobune/delivery-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "engine.db", "SQLite database path")
	syncInterval := flag.Duration("sync-interval", 10*time.Minute, "inventory sync interval (0 disables)")
	webhook := flag.String("webhook", "", "chat incoming-webhook URL for operational alerts")
	demo := flag.Bool("demo", false, "seed demo fixtures on start")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	if *webhook != "" {
		handler.Notifier = api.NewWebhookNotifier(*webhook)
	}

	if *demo {
		if err := api.LoadDemoFixtures(context.Background(), store, time.Now()); err != nil {
			log.Printf("Warning: Failed to seed demo fixtures: %v", err)
		}
	}

	// Start the sync scheduler
	scheduler := api.NewSyncScheduler(handler)
	if *syncInterval <= 0 {
		scheduler.Enabled = false
	} else {
		scheduler.Interval = *syncInterval
	}
	scheduler.Start()
	defer scheduler.Stop()

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
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📦 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
