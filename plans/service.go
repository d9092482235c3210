package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripbite/config"
	"tripbite/models"
	"tripbite/mq"
	"tripbite/places"
	"tripbite/utils"
	"tripbite/yelp"
)

// Store persists plan documents.
type Store interface {
	Create(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	FindByOwner(ctx context.Context, owner string) ([]models.Plan, error)
	// Update replaces the whole document if its version still matches
	// plan.Version, and bumps the version on success.
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id string) error
}

// Searcher is the restaurant provider.
type Searcher interface {
	Search(ctx context.Context, q yelp.SearchQuery) ([]models.Business, error)
	Details(ctx context.Context, id string, fields ...string) (models.Business, error)
	BatchDetails(ctx context.Context, ids []string) (map[string]models.Business, error)
}

// Geocoder resolves a place id to a named coordinate.
type Geocoder interface {
	Lookup(ctx context.Context, placeID string) (places.Location, error)
}

type Emitter interface {
	Emit(ctx context.Context, evt mq.Event)
}

type Service struct {
	store   Store
	search  Searcher
	geo     Geocoder
	events  Emitter
	profile config.Profile
	now     func() time.Time
}

func NewService(store Store, search Searcher, geo Geocoder, events Emitter, profile config.Profile) *Service {
	return &Service{
		store:   store,
		search:  search,
		geo:     geo,
		events:  events,
		profile: profile,
		now:     time.Now,
	}
}

// ListPlans returns every plan owned by owner.
func (s *Service) ListPlans(ctx context.Context, owner string) ([]models.Plan, error) {
	list, err := s.store.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return list, nil
}

// GetPlan returns the stored plan without resolving any businesses.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	return s.load(ctx, id)
}

// DeletePlan removes a plan. Deleting an unknown id fails with ErrNotFound.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	plan, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, plan.PlanID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.emit(ctx, mq.Event{Name: mq.PlanDeleted, PlanID: plan.PlanID, Owner: plan.Owner})
	return nil
}

// load fetches a plan for reading. Plan ids are random uuids, so knowing the
// id is what grants read access; the shared QR link relies on this.
func (s *Service) load(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return plan, nil
}

// loadOwned fetches a plan about to be changed. Only its owner may change it.
func (s *Service) loadOwned(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID := utils.UserIDFromContext(ctx); userID != "" && plan.Owner != "" && plan.Owner != userID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func (s *Service) emit(ctx context.Context, evt mq.Event) {
	if s.events == nil {
		return
	}
	evt.At = s.now().UTC()
	s.events.Emit(ctx, evt)
}
