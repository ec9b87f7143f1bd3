package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"wanderlust/internal/model"
	"wanderlust/internal/repository"
)

// ReviewService contains business logic for reviews.
type ReviewService struct {
	store *repository.Store
}

func NewReviewService(store *repository.Store) *ReviewService {
	return &ReviewService{store: store}
}

// CreateReview checks that the listing exists, stores the review and
// appends its id to the listing as one unit of work.
func (s *ReviewService) CreateReview(ctx context.Context, listingID, authorID string, in model.ReviewInput) (*model.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}

	if _, err := s.store.Listings.FindByID(ctx, listingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ReviewService.CreateReview: checking listing exists: %w", err)
	}

	rev := &model.Review{
		Comment: strings.TrimSpace(in.Comment),
		Rating:  in.Rating,
		Author:  authorID,
	}

	err := s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.Reviews.Create(ctx, rev); err != nil {
			return err
		}
		if err := s.store.Listings.AddReview(ctx, listingID, rev.ID); err != nil {
			// Without a transaction the review is already stored.
			if derr := s.store.Reviews.Delete(ctx, rev.ID); derr != nil && !errors.Is(derr, repository.ErrNotFound) {
				log.Printf("[ReviewService.CreateReview] orphaned review %s: %v", rev.ID, derr)
			}
			return err
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ReviewService.CreateReview: %w", err)
	}
	return rev, nil
}

// DestroyReview detaches the review from its listing and deletes it as one
// unit of work. The review must belong to the listing.
func (s *ReviewService) DestroyReview(ctx context.Context, listingID, reviewID string) error {
	err := s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		l, err := s.store.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !slices.Contains(l.Reviews, reviewID) {
			return repository.ErrNotFound
		}
		if err := s.store.Listings.RemoveReview(ctx, listingID, reviewID); err != nil {
			return err
		}
		return s.store.Reviews.Delete(ctx, reviewID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ReviewService.DestroyReview: %w", err)
	}
	return nil
}

func validateReview(in model.ReviewInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("%w: comment is required", ErrValidation)
	}
	return nil
}
