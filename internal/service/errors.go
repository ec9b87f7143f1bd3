package service

import (
	"context"
	"errors"

	"wanderlust/internal/geocode"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrGeocodeFailed = errors.New("invalid location")
	ErrValidation    = errors.New("validation failed")
)

// Geocoder resolves a place to coordinates. *geocode.Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, location, country string) (geocode.Coordinates, error)
}
