package main

import (
	"context"
	"log"

	"wanderlust/internal/config"
	"wanderlust/internal/geocode"
	"wanderlust/internal/repository"
	"wanderlust/internal/seed"
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
	defer func() {
		if err := store.Close(ctx); err != nil {
			log.Printf("close error: %v", err)
		}
	}()

	data, err := seed.SampleListings()
	if err != nil {
		log.Fatalf("seed data error: %v", err)
	}

	s := &seed.Seeder{
		Listings: store.Listings,
		Geocoder: geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeUserAgent, nil),
		Delay:    cfg.SeedDelay,
		OwnerID:  cfg.SeedOwnerID,
	}
	n, err := s.Run(ctx, data)
	if err != nil {
		log.Printf("seed error: %v", err)
		return
	}
	log.Printf("seeded %d listings", n)
}
