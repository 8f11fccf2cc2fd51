package main

import (
	"FlowTagger/internal/api"
	"FlowTagger/internal/config"
	"FlowTagger/internal/lookup"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML config file.")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTimeout, err := time.ParseDuration(cfg.API.ShutdownTimeout)
	if err != nil {
		log.Fatalf("Invalid api shutdown_timeout: %v", err)
	}

	// Load the reference tables once; every request shares them
	protocols, err := lookup.LoadProtocolTableFile(cfg.Input.ProtocolFile)
	if err != nil {
		log.Fatalf("Failed to load protocol table: %v", err)
	}
	classes, err := lookup.LoadClassificationTableFile(cfg.Input.LookupFile)
	if err != nil {
		log.Fatalf("Failed to load classification table: %v", err)
	}
	log.Printf("Loaded %d protocols and %d classification entries.", protocols.Len(), classes.Len())

	apiHandler, err := api.NewHandler(protocols, classes, cfg.API.MaxBodyBytes)
	if err != nil {
		log.Fatalf("Failed to create API handler: %v", err)
	}

	// Start HTTP server
	server := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}
