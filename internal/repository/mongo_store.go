package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func NewMongoStore(db *mongo.Database, transactions bool) (*Store, error) {
	images, err := NewGridFSImageRepository(db)
	if err != nil {
		return nil, err
	}
	return &Store{
		Listings: NewMongoListingRepository(db),
		Reviews:  NewMongoReviewRepository(db),
		Users:    NewMongoUserRepository(db),
		Images:   images,
		Tx:       &MongoTransactor{Client: db.Client(), Enabled: transactions},
	}, nil
}

// MongoTransactor wraps fn in a multi-document transaction. Transactions
// need a replica set; with Enabled false the steps of fn run one after
// another and a failure part way leaves the earlier writes in place.
type MongoTransactor struct {
	Client  *mongo.Client
	Enabled bool
}

func (t *MongoTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.Enabled || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := t.Client.StartSession()
	if err != nil {
		return fmt.Errorf("MongoTransactor.StartSession: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureMongoIndexes creates the geospatial index on listing geometry.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("listings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("ensure listings geometry index: %w", err)
	}
	return nil
}
