// Package seed resets the listings collection to a known sample set.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wanderlust/internal/model"
	"wanderlust/internal/repository"
	"wanderlust/internal/service"
)

//go:embed data.json
var sampleData []byte

// SampleListings returns the bundled sample listings, without ids,
// owners or geometry.
func SampleListings() ([]model.Listing, error) {
	var ls []model.Listing
	if err := json.Unmarshal(sampleData, &ls); err != nil {
		return nil, fmt.Errorf("seed.SampleListings: %w", err)
	}
	return ls, nil
}

type Seeder struct {
	Listings repository.ListingRepository
	Geocoder service.Geocoder
	// Delay is waited after every successful geocode so a public
	// geocoder is not hammered.
	Delay   time.Duration
	OwnerID string
}

// Run replaces all listings with data. Entries are geocoded one at a time;
// those that fail are logged and skipped. It returns how many listings
// were inserted.
func (s *Seeder) Run(ctx context.Context, data []model.Listing) (int, error) {
	deleted, err := s.Listings.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("Seeder.Run: %w", err)
	}
	log.Printf("[seed] deleted %d old listings", deleted)

	ready := make([]model.Listing, 0, len(data))
	for _, entry := range data {
		coords, err := s.Geocoder.Geocode(ctx, entry.Location, entry.Country)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			log.Printf("[seed] failed to geocode %s, %s: %v", entry.Location, entry.Country, err)
			continue
		}

		l := entry.Clone()
		l.ID = ""
		l.Owner = s.OwnerID
		l.Reviews = []string{}
		l.Geometry = model.NewPoint(coords.Lat, coords.Lon)
		ready = append(ready, l)

		if err := wait(ctx, s.Delay); err != nil {
			return 0, err
		}
	}

	n, err := s.Listings.CreateMany(ctx, ready)
	if err != nil {
		return 0, fmt.Errorf("Seeder.Run: %w", err)
	}
	log.Printf("[seed] inserted %d listings with geometry", n)
	return n, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
