package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cardwatch/cardwatch/internal/api"
	"github.com/cardwatch/cardwatch/internal/database"
	"github.com/cardwatch/cardwatch/internal/services"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./cardwatch.db"
	}

	db, err := database.Initialize(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	importService := services.NewImportService(db)
	searchService := services.NewSearchService(db)

	priceCharting := services.NewPriceChartingService(os.Getenv("PRICECHARTING_TOKEN"))
	tcgPlayer := services.NewTCGPlayerService(os.Getenv("TCGPLAYER_PUBLIC_KEY"), os.Getenv("TCGPLAYER_PRIVATE_KEY"))
	if !priceCharting.IsConfigured() {
		log.Println("PRICECHARTING_TOKEN not set: PriceCharting lookups disabled")
	}
	if !tcgPlayer.IsConfigured() {
		log.Println("TCGplayer credentials not set: TCGplayer lookups disabled")
	}

	estimator := services.NewEstimatorService(priceCharting, tcgPlayer)

	refreshInterval := 15 * time.Minute
	if intervalStr := os.Getenv("REFRESH_INTERVAL_MINUTES"); intervalStr != "" {
		if minutes, err := strconv.Atoi(intervalStr); err == nil && minutes > 0 {
			refreshInterval = time.Duration(minutes) * time.Minute
		}
	}
	refreshWorker := services.NewRefreshWorker(db, importService, estimator, refreshInterval)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start refresh worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in refresh worker: %v - restarting in 30 seconds", r)
					}
				}()
				refreshWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				log.Println("Refresh worker restarting after panic recovery...")
			}
		}
	}()

	router := api.SetupRouter(importService, searchService, estimator, refreshWorker)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
