package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/tome-go/internal/api"
	"github.com/vrsandeep/tome-go/internal/core"
	"github.com/vrsandeep/tome-go/internal/downloader"
	"github.com/vrsandeep/tome-go/internal/downloader/providers"
	"github.com/vrsandeep/tome-go/internal/downloader/providers/librivox"
	"github.com/vrsandeep/tome-go/internal/jobs"
)

var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New(version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// Register all available providers here.
	providers.Register(librivox.New())

	// Start the download worker
	downloader.StartWorkerPool(app)

	// Start the background maintenance scheduler
	jobs.StartJobs(app, app.JobManager())

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Pause the queue so no new book starts during shutdown. Chapter
	// progress is already persisted, so the next run resumes cleanly.
	downloader.PauseDownloads()

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
