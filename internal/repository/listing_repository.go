package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"wanderlust/internal/model"
)

type MongoListingRepository struct {
	Coll *mongo.Collection
}

func NewMongoListingRepository(db *mongo.Database) *MongoListingRepository {
	return &MongoListingRepository{Coll: db.Collection("listings")}
}

func (r *MongoListingRepository) FindAll(ctx context.Context) ([]model.Listing, error) {
	cur, err := r.Coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.FindAll: %w", err)
	}
	list := []model.Listing{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("ListingRepository.FindAll: %w", err)
	}
	return list, nil
}

func (r *MongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.FindByID: %w", err)
	}
	return &l, nil
}

func (r *MongoListingRepository) Create(ctx context.Context, l *model.Listing) error {
	l.ID = primitive.NewObjectID().Hex()
	if l.Reviews == nil {
		l.Reviews = []string{}
	}
	if _, err := r.Coll.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("ListingRepository.Create: %w", err)
	}
	return nil
}

func (r *MongoListingRepository) CreateMany(ctx context.Context, ls []model.Listing) (int, error) {
	if len(ls) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(ls))
	for i := range ls {
		ls[i].ID = primitive.NewObjectID().Hex()
		if ls[i].Reviews == nil {
			ls[i].Reviews = []string{}
		}
		docs = append(docs, ls[i])
	}
	res, err := r.Coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("ListingRepository.CreateMany: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *MongoListingRepository) Update(ctx context.Context, l *model.Listing) error {
	set := bson.M{
		"title":       l.Title,
		"description": l.Description,
		"location":    l.Location,
		"country":     l.Country,
		"geometry":    l.Geometry,
	}
	if l.Price != nil {
		set["price"] = *l.Price
	}
	if l.Image != nil {
		set["image"] = l.Image
	}

	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": l.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("ListingRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoListingRepository) Delete(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.Coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.Delete: %w", err)
	}
	return &l, nil
}

func (r *MongoListingRepository) AddReview(ctx context.Context, listingID, reviewID string) error {
	return r.updateReviews(ctx, listingID, bson.M{"$push": bson.M{"reviews": reviewID}})
}

func (r *MongoListingRepository) RemoveReview(ctx context.Context, listingID, reviewID string) error {
	return r.updateReviews(ctx, listingID, bson.M{"$pull": bson.M{"reviews": reviewID}})
}

func (r *MongoListingRepository) updateReviews(ctx context.Context, listingID string, update bson.M) error {
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": listingID}, update)
	if err != nil {
		return fmt.Errorf("ListingRepository.updateReviews: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.Coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("ListingRepository.DeleteAll: %w", err)
	}
	return res.DeletedCount, nil
}
