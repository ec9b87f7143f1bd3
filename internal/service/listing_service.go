package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"wanderlust/internal/model"
	"wanderlust/internal/repository"
)

// ImageUpload is an image submitted with a create or update.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type ReviewDetail struct {
	ID        string     `json:"id"`
	Comment   string     `json:"comment"`
	Rating    int        `json:"rating"`
	CreatedAt time.Time  `json:"createdAt"`
	Author    model.User `json:"author"`
}

// ListingDetail is a listing with its owner and reviews resolved.
type ListingDetail struct {
	Listing model.Listing  `json:"listing"`
	Owner   model.User     `json:"owner"`
	Reviews []ReviewDetail `json:"reviews"`
}

type EditForm struct {
	Listing          model.Listing `json:"listing"`
	OriginalImageURL string        `json:"originalImageUrl"`
}

// ListingService holds the listing workflows.
type ListingService struct {
	store    *repository.Store
	geocoder Geocoder
}

func NewListingService(store *repository.Store, geocoder Geocoder) *ListingService {
	return &ListingService{store: store, geocoder: geocoder}
}

func (s *ListingService) List(ctx context.Context) ([]model.Listing, error) {
	list, err := s.store.Listings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListingService.List: %w", err)
	}
	return list, nil
}

// Show loads a listing with its reviews, their authors and the owner.
func (s *ListingService) Show(ctx context.Context, id string) (*ListingDetail, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.store.Reviews.FindByIDs(ctx, l.Reviews)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Show: %w", err)
	}

	userIDs := []string{}
	seen := map[string]bool{}
	for _, id := range append([]string{l.Owner}, authorIDs(reviews)...) {
		if id != "" && !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	users, err := s.store.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Show: %w", err)
	}

	detail := &ListingDetail{
		Listing: *l,
		Owner:   userOrRef(users, l.Owner),
		Reviews: make([]ReviewDetail, 0, len(reviews)),
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, ReviewDetail{
			ID:        r.ID,
			Comment:   r.Comment,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
			Author:    userOrRef(users, r.Author),
		})
	}
	return detail, nil
}

// Create geocodes the submitted place and stores a new listing owned by
// ownerID. Nothing is stored when geocoding fails.
func (s *ListingService) Create(ctx context.Context, ownerID string, in model.ListingInput, img *ImageUpload) (*model.Listing, error) {
	l := model.Listing{Owner: ownerID}.Merge(in)
	if err := validateListing(l); err != nil {
		return nil, err
	}

	coords, err := s.geocoder.Geocode(ctx, l.Location, l.Country)
	if err != nil {
		log.Printf("[ListingService.Create] geocode %q, %q: %v", l.Location, l.Country, err)
		return nil, fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	l.Geometry = model.NewPoint(coords.Lat, coords.Lon)

	if img != nil {
		if l.Image, err = s.uploadImage(ctx, img); err != nil {
			return nil, err
		}
	}

	if err := s.store.Listings.Create(ctx, &l); err != nil {
		s.discardImage(ctx, img, l.Image)
		return nil, fmt.Errorf("ListingService.Create: %w", err)
	}
	return &l, nil
}

func (s *ListingService) EditForm(ctx context.Context, id string) (*EditForm, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	form := &EditForm{Listing: *l}
	if l.Image != nil {
		form.OriginalImageURL = l.Image.ThumbnailURL()
	}
	return form, nil
}

// Update applies the submitted fields to the stored listing. The place is
// geocoded again only when location or country changed; if that fails the
// stored listing is left as it was.
func (s *ListingService) Update(ctx context.Context, id string, in model.ListingInput, img *ImageUpload) (*model.Listing, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Merge(in)
	if err := validateListing(next); err != nil {
		return nil, err
	}

	if current.LocationChanged(next) {
		coords, err := s.geocoder.Geocode(ctx, next.Location, next.Country)
		if err != nil {
			log.Printf("[ListingService.Update] geocode %q, %q: %v", next.Location, next.Country, err)
			return nil, fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
		}
		next.Geometry = model.NewPoint(coords.Lat, coords.Lon)
	}

	if img != nil {
		if next.Image, err = s.uploadImage(ctx, img); err != nil {
			return nil, err
		}
	}

	if err := s.store.Listings.Update(ctx, &next); err != nil {
		s.discardImage(ctx, img, next.Image)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ListingService.Update: %w", err)
	}
	return &next, nil
}

// Delete removes the listing and every review it references. Deleting an
// unknown id is a no-op.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	err := s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		deleted, err := s.store.Listings.Delete(ctx, id)
		if err != nil {
			return err
		}
		return CascadeDeleteReviews(ctx, s.store.Reviews, deleted)
	})
	if err != nil {
		return fmt.Errorf("ListingService.Delete: %w", err)
	}
	return nil
}

// CascadeDeleteReviews deletes the reviews referenced by a listing that was
// just deleted. A nil listing means nothing was deleted.
func CascadeDeleteReviews(ctx context.Context, reviews repository.ReviewRepository, deleted *model.Listing) error {
	if deleted == nil || len(deleted.Reviews) == 0 {
		return nil
	}
	n, err := reviews.DeleteMany(ctx, deleted.Reviews)
	if err != nil {
		return fmt.Errorf("cascade delete reviews of %s: %w", deleted.ID, err)
	}
	log.Printf("[CascadeDeleteReviews] listing %s: removed %d reviews", deleted.ID, n)
	return nil
}

func (s *ListingService) find(ctx context.Context, id string) (*model.Listing, error) {
	l, err := s.store.Listings.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ListingService.find: %w", err)
	}
	return l, nil
}

func (s *ListingService) uploadImage(ctx context.Context, img *ImageUpload) (*model.Image, error) {
	id, err := s.store.Images.Upload(ctx, img.Content, img.Filename)
	if err != nil {
		return nil, fmt.Errorf("ListingService.uploadImage: %w", err)
	}
	return &model.Image{URL: model.ImageURLPrefix + id, Filename: img.Filename}, nil
}

// discardImage removes an image uploaded for a write that then failed.
func (s *ListingService) discardImage(ctx context.Context, img *ImageUpload, stored *model.Image) {
	if img == nil || stored == nil {
		return
	}
	id := strings.TrimPrefix(stored.URL, model.ImageURLPrefix)
	if err := s.store.Images.Delete(ctx, id); err != nil {
		log.Printf("[ListingService] orphaned image %s: %v", id, err)
	}
}

func validateListing(l model.Listing) error {
	switch {
	case strings.TrimSpace(l.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(l.Location) == "":
		return fmt.Errorf("%w: location is required", ErrValidation)
	case strings.TrimSpace(l.Country) == "":
		return fmt.Errorf("%w: country is required", ErrValidation)
	case l.Price != nil && *l.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

func authorIDs(reviews []model.Review) []string {
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.Author)
	}
	return ids
}

func userOrRef(users map[string]model.User, id string) model.User {
	if u, ok := users[id]; ok {
		return u
	}
	return model.User{ID: id}
}
