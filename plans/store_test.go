package plans

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"tripbite/models"
)

func planDoc(t *testing.T, p models.Plan) bson.D {
	t.Helper()
	raw, err := bson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal plan: %v", err)
	}
	return doc
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := twoDayPlan()
		if err := store.Create(context.Background(), &p); err != nil {
			mt.Fatalf("Create: %v", err)
		}
	})

	mt.Run("create rejects incomplete days", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)

		p := twoDayPlan()
		p.Days[1].L = ""
		if err := store.Create(context.Background(), &p); !errors.Is(err, models.ErrInvalidPlan) {
			mt.Fatalf("expected ErrInvalidPlan, got %v", err)
		}
	})

	mt.Run("find by id", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tripbite.plans", mtest.FirstBatch, planDoc(mt.T, twoDayPlan())))

		p, err := store.FindByID(context.Background(), "p1")
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if p.PlanID != "p1" || len(p.Days) != 2 || p.Days[1].D != "F" || p.Version != 1 {
			mt.Errorf("unexpected plan %+v", p)
		}
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tripbite.plans", mtest.FirstBatch))

		if _, err := store.FindByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("find by owner", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		second := twoDayPlan()
		second.PlanID = "p2"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "tripbite.plans", mtest.FirstBatch, planDoc(mt.T, twoDayPlan())),
			mtest.CreateCursorResponse(0, "tripbite.plans", mtest.NextBatch, planDoc(mt.T, second)),
		)

		list, err := store.FindByOwner(context.Background(), "u1")
		if err != nil {
			mt.Fatalf("FindByOwner: %v", err)
		}
		if len(list) != 2 || list[0].PlanID != "p1" || list[1].PlanID != "p2" {
			mt.Errorf("unexpected list %+v", list)
		}
	})

	mt.Run("find by owner empty", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tripbite.plans", mtest.FirstBatch))

		list, err := store.FindByOwner(context.Background(), "u1")
		if err != nil {
			mt.Fatalf("FindByOwner: %v", err)
		}
		if list == nil || len(list) != 0 {
			mt.Errorf("expected an empty, non-nil list, got %#v", list)
		}
	})

	mt.Run("update bumps version", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		p := twoDayPlan()
		if err := store.Update(context.Background(), &p); err != nil {
			mt.Fatalf("Update: %v", err)
		}
		if p.Version != 2 {
			mt.Errorf("version = %d, want 2", p.Version)
		}
	})

	mt.Run("update conflict", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		p := twoDayPlan()
		if err := store.Update(context.Background(), &p); !errors.Is(err, ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
		if p.Version != 1 {
			mt.Errorf("version must not move on conflict, got %d", p.Version)
		}
	})

	mt.Run("update server error", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		p := twoDayPlan()
		if err := store.Update(context.Background(), &p); err == nil || errors.Is(err, ErrConflict) {
			mt.Fatalf("expected a driver error, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := store.Delete(context.Background(), "p1"); err != nil {
			mt.Fatalf("Delete: %v", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := store.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
