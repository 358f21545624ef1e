package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/dayledger/internal/config"
	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/persistence/firebase"
	"example.com/dayledger/internal/session"
	httptransport "example.com/dayledger/internal/transport/http"
	"example.com/dayledger/internal/tui"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := identity.NewClient(identity.Config{
		AccountsURL: cfg.IdentityURL,
		TokenURL:    cfg.TokenURL,
		APIKey:      cfg.APIKey,
		HTTPTimeout: cfg.HTTPTimeout,
	})
	store := firebase.NewClientWithTimeout(cfg.DatabaseURL, cfg.HTTPTimeout)

	state := tui.NewViewState()
	manager := session.NewManager(auth, store, state, cfg.StartDate)
	manager.Start(ctx)
	defer manager.Stop()

	var metrics *http.Server
	if cfg.MetricsAddress != "" {
		metrics = httptransport.NewMetricsServer(cfg.MetricsAddress)
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddress)
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdownCh
		cancel()
	}()

	if err := tui.Run(ctx, auth, manager, state); err != nil && ctx.Err() == nil {
		log.Fatalf("ui error: %v", err)
	}
	cancel()

	if metrics != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}
}
