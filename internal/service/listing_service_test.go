package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wanderlust/internal/geocode"
	"wanderlust/internal/model"
	"wanderlust/internal/repository"
)

func TestCreateStoresGeocodedPoint(t *testing.T) {
	store, geo, svc, _ := newFixture(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, "owner-1", listingInput("Loft", "Paris", "France"), jpeg("loft.jpg"))
	require.NoError(t, err)

	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Geometry{Type: "Point", Coordinates: []float64{2.3522, 48.8566}}, stored.Geometry)
	assert.Equal(t, "owner-1", stored.Owner)
	assert.Equal(t, "loft.jpg", stored.Image.Filename)
	assert.True(t, strings.HasPrefix(stored.Image.URL, model.ImageURLPrefix))
	assert.Equal(t, []geocodeCall{{"Paris", "France"}}, geo.calls)
}

func TestCreateWithoutImage(t *testing.T) {
	_, _, svc, _ := newFixture(t)

	l, err := svc.Create(context.Background(), "owner-1", listingInput("Loft", "Paris", "France"), nil)
	require.NoError(t, err)
	assert.Nil(t, l.Image)
}

func TestCreateGeocodeFailureStoresNothing(t *testing.T) {
	store, geo, svc, _ := newFixture(t)
	images := &countingImages{ImageRepository: store.Images}
	store.Images = images
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", listingInput("Castle", "Nowhere", "Atlantis"), jpeg("castle.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeocodeFailed))

	geo.err = geocode.ErrUnavailable
	_, err = svc.Create(ctx, "owner-1", listingInput("Loft", "Paris", "France"), nil)
	assert.True(t, errors.Is(err, ErrGeocodeFailed))

	all, err := store.Listings.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, images.uploads)
}

func TestCreateValidation(t *testing.T) {
	_, geo, svc, _ := newFixture(t)

	tests := []struct {
		name string
		in   model.ListingInput
	}{
		{"missing title", model.ListingInput{Location: str("Paris"), Country: str("France")}},
		{"blank location", model.ListingInput{Title: str("Loft"), Location: str("  "), Country: str("France")}},
		{"missing country", model.ListingInput{Title: str("Loft"), Location: str("Paris")}},
		{"negative price", model.ListingInput{Title: str("Loft"), Location: str("Paris"), Country: str("France"), Price: num(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "owner-1", tt.in, nil)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
	assert.Zero(t, geo.Calls())
}

func TestUpdateWithoutPlaceChangeKeepsGeometry(t *testing.T) {
	store, geo, svc, _ := newFixture(t)
	ctx := context.Background()
	l := seedListing(t, svc, "Paris", "France")

	edits := []model.ListingInput{
		{Title: str("Renamed")},
		{Description: str("now with a balcony")},
		{Price: num(99)},
		{Location: str("Paris"), Country: str("France"), Title: str("Same place")},
	}
	for _, in := range edits {
		_, err := svc.Update(ctx, l.ID, in, nil)
		require.NoError(t, err)
	}

	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.3522, 48.8566}, stored.Geometry.Coordinates)
	assert.Equal(t, "Same place", stored.Title)
	assert.Equal(t, "now with a balcony", stored.Description)
	assert.Equal(t, 99.0, *stored.Price)
	assert.Equal(t, 1, geo.Calls(), "only the create geocodes")
}

func TestUpdateLocationRegeocodesOnce(t *testing.T) {
	store, geo, svc, _ := newFixture(t)
	ctx := context.Background()
	l := seedListing(t, svc, "Paris", "France")

	_, err := svc.Update(ctx, l.ID, model.ListingInput{Location: str("Lyon")}, nil)
	require.NoError(t, err)

	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.8357, 45.764}, stored.Geometry.Coordinates)
	assert.Equal(t, "Lyon", stored.Location)
	assert.Equal(t, 2, geo.Calls())
	assert.Equal(t, geocodeCall{"Lyon", "France"}, geo.calls[1])
}

func TestUpdateGeocodeFailureLeavesListingUntouched(t *testing.T) {
	store, _, svc, _ := newFixture(t)
	images := &countingImages{ImageRepository: store.Images}
	store.Images = images
	ctx := context.Background()
	l := seedListing(t, svc, "Paris", "France")

	_, err := svc.Update(ctx, l.ID, model.ListingInput{
		Title:    str("Moved"),
		Location: str("Nowhere"),
	}, jpeg("new.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeocodeFailed))

	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stay in Paris", stored.Title)
	assert.Equal(t, "Paris", stored.Location)
	assert.Equal(t, []float64{2.3522, 48.8566}, stored.Geometry.Coordinates)
	assert.Zero(t, images.uploads)
}

func TestUpdateNotFound(t *testing.T) {
	_, geo, svc, _ := newFixture(t)

	_, err := svc.Update(context.Background(), "missing", model.ListingInput{Location: str("Lyon")}, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, geo.Calls())
}

func TestUpdateImageReplacedOnlyWhenSupplied(t *testing.T) {
	store, _, svc, _ := newFixture(t)
	ctx := context.Background()
	l, err := svc.Create(ctx, "owner-1", listingInput("Loft", "Paris", "France"), jpeg("first.jpg"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, l.ID, model.ListingInput{Title: str("Loft 2")}, nil)
	require.NoError(t, err)
	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "first.jpg", stored.Image.Filename)

	_, err = svc.Update(ctx, l.ID, model.ListingInput{}, jpeg("second.jpg"))
	require.NoError(t, err)
	stored, err = store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "second.jpg", stored.Image.Filename)
	assert.NotEqual(t, l.Image.URL, stored.Image.URL)
}

func TestUpdateOfVanishedListingDiscardsUpload(t *testing.T) {
	store, _, svc, _ := newFixture(t)
	ctx := context.Background()
	l := seedListing(t, svc, "Paris", "France")

	images := &countingImages{ImageRepository: store.Images}
	store.Images = images
	store.Listings = &vanishingListings{ListingRepository: store.Listings}

	_, err := svc.Update(ctx, l.ID, model.ListingInput{Title: str("Loft 2")}, jpeg("new.jpg"))
	assert.True(t, errors.Is(err, ErrNotFound))

	require.Len(t, images.ids, 1)
	_, _, err = store.Images.Download(ctx, images.ids[0])
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUpdateKeepsOwnerAndReviews(t *testing.T) {
	store, _, svc, reviews := newFixture(t)
	ctx := context.Background()
	l := seedListing(t, svc, "Paris", "France")
	rev, err := reviews.CreateReview(ctx, l.ID, "guest-1", model.ReviewInput{Comment: "Great", Rating: 5})
	require.NoError(t, err)

	_, err = svc.Update(ctx, l.ID, model.ListingInput{Location: str("Lyon")}, nil)
	require.NoError(t, err)

	stored, err := store.Listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", stored.Owner)
	assert.Equal(t, []string{rev.ID}, stored.Reviews)
}

func TestDeleteCascadesToReviews(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d reviews", n), func(t *testing.T) {
			store, _, svc, reviews := newFixture(t)
			ctx := context.Background()
			doomed := seedListing(t, svc, "Paris", "France")
			kept := seedListing(t, svc, "Lyon", "France")

			var doomedReviews []string
			for i := 0; i < n; i++ {
				r, err := reviews.CreateReview(ctx, doomed.ID, "guest", model.ReviewInput{Comment: "ok", Rating: 3})
				require.NoError(t, err)
				doomedReviews = append(doomedReviews, r.ID)
			}
			keptReview, err := reviews.CreateReview(ctx, kept.ID, "guest", model.ReviewInput{Comment: "nice", Rating: 4})
			require.NoError(t, err)

			require.NoError(t, svc.Delete(ctx, doomed.ID))

			_, err = store.Listings.FindByID(ctx, doomed.ID)
			assert.True(t, errors.Is(err, repository.ErrNotFound))
			left, err := store.Reviews.FindByIDs(ctx, doomedReviews)
			require.NoError(t, err)
			assert.Empty(t, left)

			_, err = store.Reviews.FindByID(ctx, keptReview.ID)
			assert.NoError(t, err)
		})
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	_, _, svc, _ := newFixture(t)
	assert.NoError(t, svc.Delete(context.Background(), "missing"))
}

func TestCascadeDeleteReviewsNilListing(t *testing.T) {
	store, _, _, _ := newFixture(t)
	assert.NoError(t, CascadeDeleteReviews(context.Background(), store.Reviews, nil))
}

func TestShowResolvesOwnerAndAuthors(t *testing.T) {
	store, _, svc, reviews := newFixture(t)
	ctx := context.Background()
	users := store.Users.(interface{ Put(model.User) })
	users.Put(model.User{ID: "owner-1", Username: "host"})
	users.Put(model.User{ID: "guest-1", Username: "traveller"})

	l := seedListing(t, svc, "Paris", "France")
	_, err := reviews.CreateReview(ctx, l.ID, "guest-1", model.ReviewInput{Comment: "Lovely", Rating: 5})
	require.NoError(t, err)
	_, err = reviews.CreateReview(ctx, l.ID, "guest-2", model.ReviewInput{Comment: "Fine", Rating: 3})
	require.NoError(t, err)

	detail, err := svc.Show(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "host", detail.Owner.Username)
	require.Len(t, detail.Reviews, 2)
	assert.Equal(t, "Lovely", detail.Reviews[0].Comment)
	assert.Equal(t, "traveller", detail.Reviews[0].Author.Username)
	assert.Equal(t, model.User{ID: "guest-2"}, detail.Reviews[1].Author)
}

func TestShowNotFoundStopsBeforeLookups(t *testing.T) {
	store, _, svc, _ := newFixture(t)
	spy := &countingReviews{ReviewRepository: store.Reviews}
	store.Reviews = spy

	detail, err := svc.Show(context.Background(), "missing")
	assert.Nil(t, detail)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, spy.lookups)
}

func TestEditFormThumbnail(t *testing.T) {
	_, _, svc, _ := newFixture(t)
	ctx := context.Background()
	l, err := svc.Create(ctx, "owner-1", listingInput("Loft", "Paris", "France"), jpeg("loft.jpg"))
	require.NoError(t, err)

	form, err := svc.EditForm(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(l.Image.URL, "/upload/", "/upload/w_100,h_100/", 1), form.OriginalImageURL)

	_, err = svc.EditForm(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	_, _, svc, _ := newFixture(t)
	seedListing(t, svc, "Paris", "France")
	seedListing(t, svc, "Aspen", "USA")

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
