package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wanderlust/internal/config"
	"wanderlust/internal/geocode"
	"wanderlust/internal/handler"
	"wanderlust/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}

	geocoder := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeUserAgent, &http.Client{Timeout: 10 * time.Second})
	r := handler.NewRouter(store, geocoder, cfg.JWTSecret)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("WanderLust listening on :%s (store: %s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("store close error: %v", err)
	}
}
