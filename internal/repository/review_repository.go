package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"wanderlust/internal/model"
)

type MongoReviewRepository struct {
	coll *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{coll: db.Collection("reviews")}
}

// Create saves a new review, filling in its ID and CreatedAt.
func (r *MongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	review.ID = primitive.NewObjectID().Hex()
	review.CreatedAt = time.Now().UTC()
	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("ReviewRepository.Create: %w", err)
	}
	return nil
}

func (r *MongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	var rev model.Review
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByID: %w", err)
	}
	return &rev, nil
}

// FindByIDs returns the reviews in the order of ids; unknown ids are skipped.
func (r *MongoReviewRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Review, error) {
	if len(ids) == 0 {
		return []model.Review{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByIDs: %w", err)
	}
	var found []model.Review
	if err := cur.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByIDs: %w", err)
	}
	byID := make(map[string]model.Review, len(found))
	for _, rev := range found {
		byID[rev.ID] = rev
	}
	return orderByIDs(ids, byID), nil
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("ReviewRepository.Delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReviewRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("ReviewRepository.DeleteMany: %w", err)
	}
	return res.DeletedCount, nil
}
