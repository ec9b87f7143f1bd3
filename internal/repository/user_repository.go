package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"wanderlust/internal/model"
)

// MongoUserRepository reads the users collection maintained by the
// identity service. It never writes.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection("users")}
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	users := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("UserRepository.FindByIDs: %w", err)
	}
	var found []model.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("UserRepository.FindByIDs: %w", err)
	}
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}
