package repository

import (
	"context"
	"errors"
	"io"

	"wanderlust/internal/model"
)

var ErrNotFound = errors.New("record not found")

type ListingRepository interface {
	FindAll(ctx context.Context) ([]model.Listing, error)
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	// Create assigns l.ID.
	Create(ctx context.Context, l *model.Listing) error
	CreateMany(ctx context.Context, ls []model.Listing) (int, error)
	// Update persists title, description, price, location, country,
	// geometry and image. Owner and reviews are left as stored.
	Update(ctx context.Context, l *model.Listing) error
	// Delete removes the listing and returns it as it was stored, or nil
	// when nothing matched.
	Delete(ctx context.Context, id string) (*model.Listing, error)
	AddReview(ctx context.Context, listingID, reviewID string) error
	RemoveReview(ctx context.Context, listingID, reviewID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type ReviewRepository interface {
	// Create assigns r.ID and r.CreatedAt.
	Create(ctx context.Context, r *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Review, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type UserRepository interface {
	// FindByIDs returns the users it knows about, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error)
}

type ImageRepository interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
	Download(ctx context.Context, id string) ([]byte, string, error)
	Delete(ctx context.Context, id string) error
}

// Transactor runs fn as one unit of work. Repositories called with the ctx
// handed to fn take part in it; a nested WithTx joins the outer unit.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the storage capability handed to services and handlers.
type Store struct {
	Listings ListingRepository
	Reviews  ReviewRepository
	Users    UserRepository
	Images   ImageRepository
	Tx       Transactor

	close func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// orderByIDs returns the records of byID in the order of ids, skipping
// ids without a record.
func orderByIDs[T any](ids []string, byID map[string]T) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
