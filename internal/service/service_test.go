package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"wanderlust/internal/geocode"
	"wanderlust/internal/model"
	"wanderlust/internal/repository"
)

type geocodeCall struct {
	Location, Country string
}

// stubGeocoder answers from a fixed table and records every call.
type stubGeocoder struct {
	mu      sync.Mutex
	calls   []geocodeCall
	results map[string]geocode.Coordinates
	err     error
}

func newStubGeocoder() *stubGeocoder {
	return &stubGeocoder{results: map[string]geocode.Coordinates{
		"Paris, France":     {Lat: 48.8566, Lon: 2.3522},
		"Lyon, France":      {Lat: 45.764, Lon: 4.8357},
		"Aspen, USA":        {Lat: 39.1911, Lon: -106.8175},
		"Cape Town, Africa": {Lat: -33.9249, Lon: 18.4241},
	}}
}

func (g *stubGeocoder) Geocode(_ context.Context, location, country string) (geocode.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, geocodeCall{location, country})
	if g.err != nil {
		return geocode.Coordinates{}, g.err
	}
	c, ok := g.results[location+", "+country]
	if !ok {
		return geocode.Coordinates{}, geocode.ErrLocationNotFound
	}
	return c, nil
}

func (g *stubGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// countingImages counts uploads going through to the wrapped repository.
type countingImages struct {
	repository.ImageRepository
	uploads int
	ids     []string
}

func (c *countingImages) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	c.uploads++
	id, err := c.ImageRepository.Upload(ctx, r, filename)
	if err == nil {
		c.ids = append(c.ids, id)
	}
	return id, err
}

// vanishingListings deletes the listing right before an update reaches
// the store, as a concurrent delete would.
type vanishingListings struct {
	repository.ListingRepository
}

func (v *vanishingListings) Update(ctx context.Context, l *model.Listing) error {
	if _, err := v.ListingRepository.Delete(ctx, l.ID); err != nil {
		return err
	}
	return v.ListingRepository.Update(ctx, l)
}

// countingReviews counts lookups going through to the wrapped repository.
type countingReviews struct {
	repository.ReviewRepository
	lookups int
}

func (c *countingReviews) FindByIDs(ctx context.Context, ids []string) ([]model.Review, error) {
	c.lookups++
	return c.ReviewRepository.FindByIDs(ctx, ids)
}

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func listingInput(title, location, country string) model.ListingInput {
	return model.ListingInput{
		Title:       str(title),
		Description: str("a lovely stay"),
		Price:       num(150),
		Location:    str(location),
		Country:     str(country),
	}
}

func jpeg(name string) *ImageUpload {
	return &ImageUpload{Filename: name, Content: strings.NewReader("jpeg bytes")}
}

func newFixture(t *testing.T) (*repository.Store, *stubGeocoder, *ListingService, *ReviewService) {
	t.Helper()
	store := repository.NewMemoryStore()
	geo := newStubGeocoder()
	return store, geo, NewListingService(store, geo), NewReviewService(store)
}

func seedListing(t *testing.T, svc *ListingService, location, country string) *model.Listing {
	t.Helper()
	l, err := svc.Create(context.Background(), "owner-1", listingInput("Stay in "+location, location, country), nil)
	require.NoError(t, err)
	return l
}
