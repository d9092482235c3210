package plans

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"tripbite/config"
	"tripbite/models"
	"tripbite/mq"
	"tripbite/places"
	"tripbite/yelp"
)

type memStore struct {
	mu      sync.Mutex
	plans   map[string]models.Plan
	updates int
	failErr error
}

func newMemStore(seed ...models.Plan) *memStore {
	m := &memStore{plans: map[string]models.Plan{}}
	for _, p := range seed {
		m.plans[p.PlanID] = clonePlan(p)
	}
	return m
}

func clonePlan(p models.Plan) models.Plan {
	p.Days = slices.Clone(p.Days)
	p.RejectedIDs = slices.Clone(p.RejectedIDs)
	return p
}

func (m *memStore) Create(_ context.Context, plan *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	m.plans[plan.PlanID] = clonePlan(*plan)
	return nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clonePlan(p)
	return &p, nil
}

func (m *memStore) FindByOwner(_ context.Context, owner string) ([]models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Plan{}
	for _, p := range m.plans {
		if p.Owner == owner {
			out = append(out, clonePlan(p))
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, plan *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	cur, ok := m.plans[plan.PlanID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != plan.Version {
		return ErrConflict
	}
	plan.Version++
	m.plans[plan.PlanID] = clonePlan(*plan)
	m.updates++
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *memStore) get(id string) models.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePlan(m.plans[id])
}

// fakeSearch answers searches from a per-term function and records calls.
type fakeSearch struct {
	mu         sync.Mutex
	search     func(q yelp.SearchQuery) ([]models.Business, error)
	queries    []yelp.SearchQuery
	batchCalls [][]string
	details    []string
	detailsErr error
}

func (f *fakeSearch) Search(_ context.Context, q yelp.SearchQuery) ([]models.Business, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.search(q)
}

func (f *fakeSearch) Details(_ context.Context, id string, _ ...string) (models.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, id)
	if f.detailsErr != nil {
		return models.Business{}, f.detailsErr
	}
	return models.Business{ID: id, Name: "Name " + id}, nil
}

func (f *fakeSearch) BatchDetails(_ context.Context, ids []string) (map[string]models.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), ids...))
	out := make(map[string]models.Business, len(ids))
	for _, id := range ids {
		out[id] = models.Business{ID: id, Name: "Name " + id}
	}
	return out, nil
}

// listsByTerm returns a search func serving fixed lists keyed by meal name.
func listsByTerm(lists map[string][]string) func(q yelp.SearchQuery) ([]models.Business, error) {
	profile := config.DefaultProfile()
	return func(q yelp.SearchQuery) ([]models.Business, error) {
		for meal, ids := range lists {
			if q.Term == profile.Term(meal) {
				return businesses(ids...), nil
			}
		}
		return nil, nil
	}
}

func businesses(ids ...string) []models.Business {
	out := make([]models.Business, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Business{ID: id})
	}
	return out
}

type fakeGeo struct {
	loc places.Location
	err error
}

func (g fakeGeo) Lookup(_ context.Context, placeID string) (places.Location, error) {
	if g.err != nil {
		return places.Location{}, g.err
	}
	loc := g.loc
	loc.PlaceID = placeID
	return loc, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recordingEmitter) Emit(_ context.Context, evt mq.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

var errBoom = errors.New("boom")

var austin = places.Location{Name: "Austin", Address: "Austin, TX, USA", Lat: 30.2672, Lng: -97.7431}

func newTestService(store Store, search Searcher, geo Geocoder, events Emitter) *Service {
	s := NewService(store, search, geo, events, config.DefaultProfile())
	s.now = func() time.Time { return time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}
