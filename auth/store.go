package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tripbite/models"
)

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll}
}

// Create inserts a user. The unique email index turns duplicates into
// ErrEmailTaken.
func (m *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := m.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (m *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *MongoUserStore) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"last_login": at}})
	return err
}
