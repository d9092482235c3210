package plans

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripbite/models"
	"tripbite/utils"
)

// MongoStore keeps plans in a single collection keyed by plan id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Create(ctx context.Context, plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	_, err := m.coll.InsertOne(ctx, plan)
	return err
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindByOwner lists an owner's plans, soonest trip first.
func (m *MongoStore) FindByOwner(ctx context.Context, owner string) ([]models.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	return utils.FindAndDecode[models.Plan](ctx, m.coll, bson.M{"owner": owner}, opts)
}

// Update writes the whole plan only if nobody saved it since it was read.
func (m *MongoStore) Update(ctx context.Context, plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	expected := plan.Version
	next := *plan
	next.Version = expected + 1

	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": plan.PlanID, "version": expected}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrConflict, plan.PlanID, expected)
	}
	plan.Version = next.Version
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
