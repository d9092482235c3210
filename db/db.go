package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the client and the collections the app reads and writes.
type DB struct {
	Client          *mongo.Client
	PlansCollection *mongo.Collection
	UserCollection  *mongo.Collection
}

// Connect opens a client, pings it and resolves the collections.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return New(client, database), nil
}

func New(client *mongo.Client, database string) *DB {
	d := client.Database(database)
	return &DB{
		Client:          client,
		PlansCollection: d.Collection("plans"),
		UserCollection:  d.Collection("users"),
	}
}

// CreateIndexes sets up the unique email index and the owner lookup index.
func (d *DB) CreateIndexes(ctx context.Context) error {
	_, err := d.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = d.PlansCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "startDate", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create plans.owner index: %w", err)
	}

	log.Println("MongoDB indexes ensured")
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
