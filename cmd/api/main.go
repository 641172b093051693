package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/duolingo"
	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
)

func main() {
	startTime := time.Now()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("Opening %s store...", cfg.Store.Backend)
	stores, err := repository.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Critical: Failed to open store: %v", err)
	}
	defer stores.Close()

	client := duolingo.NewClient(duolingo.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.HTTPTimeout,
		FetchDays: cfg.FetchDays,
		Location:  cfg.Location,
	})

	a := newApp(cfg, stores, client, startTime)
	if a.worker != nil {
		a.worker.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Duolingo Sync Engine running on http://localhost:%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown error: %v", err)
	}

	cancel()
	if a.worker != nil {
		select {
		case <-a.worker.Done():
		case <-shutdownCtx.Done():
			log.Println("Sync worker did not stop in time")
		}
	}

	log.Println("Server stopped gracefully.")
}
