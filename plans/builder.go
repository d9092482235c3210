package plans

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tripbite/dates"
	"tripbite/models"
	"tripbite/mq"
	"tripbite/utils"
	"tripbite/yelp"
)

const (
	pageSize = 50
	maxPages = 4

	// MaxTripDays is the most days searchMeal can ever fill.
	MaxTripDays = pageSize * maxPages
)

// PlanConfig is the create request. Either PlaceID or Lat/Lng must be set.
type PlanConfig struct {
	PlaceID   string `json:"place_id"`
	Lat       string `json:"lat"`
	Lng       string `json:"lng"`
	Location  string `json:"location"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Name      string `json:"name"`
	Owner     string `json:"-"`
}

// Preview is the unsaved result of a location search: candidate lists per meal.
type Preview struct {
	Location string            `json:"location"`
	B        []models.Business `json:"b"`
	L        []models.Business `json:"l"`
	D        []models.Business `json:"d"`
}

type anchor struct {
	name string
	lat  string
	lng  string
}

// candidates holds one provider-ordered list per meal, indexed like Meals.
type candidates [len(Meals)][]models.Business

// CreatePlan resolves the location, assigns one restaurant per meal to every
// day of the range and stores the result.
func (s *Service) CreatePlan(ctx context.Context, cfg PlanConfig) (*models.Plan, error) {
	start, err := dates.ParseSave(cfg.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := dates.ParseSave(cfg.EndDate)
	if err != nil {
		return nil, err
	}
	if end.After(start.AddDate(0, 0, MaxTripDays-1)) {
		return nil, fmt.Errorf("%w: %s to %s exceeds %d days", ErrTripTooLong, cfg.StartDate, cfg.EndDate, MaxTripDays)
	}
	days, err := dates.DaysInclusive(start, end)
	if err != nil {
		return nil, err
	}

	at, err := s.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}

	found, err := s.fetchCandidates(ctx, at, len(days))
	if err != nil {
		return nil, err
	}

	assigned, err := assignDays(days, found)
	if err != nil {
		return nil, err
	}

	owner := cfg.Owner
	if owner == "" {
		owner = utils.UserIDFromContext(ctx)
	}
	now := s.now().UTC()
	plan := &models.Plan{
		PlanID:      utils.GetUUID(),
		Owner:       owner,
		Location:    at.name,
		Lat:         at.lat,
		Lng:         at.lng,
		StartDate:   dates.FormatForSave(start),
		EndDate:     dates.FormatForSave(end),
		Name:        strings.TrimSpace(cfg.Name),
		Days:        assigned,
		RejectedIDs: []string{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.emit(ctx, mq.Event{Name: mq.PlanCreated, PlanID: plan.PlanID, Owner: plan.Owner})
	return plan, nil
}

// PreviewPlan runs the location and restaurant searches without saving.
func (s *Service) PreviewPlan(ctx context.Context, cfg PlanConfig) (*Preview, error) {
	at, err := s.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}

	found, err := s.fetchCandidates(ctx, at, 0)
	if err != nil {
		return nil, err
	}

	return &Preview{Location: at.name, B: found[0], L: found[1], D: found[2]}, nil
}

func (s *Service) resolve(ctx context.Context, cfg PlanConfig) (anchor, error) {
	if cfg.PlaceID != "" {
		loc, err := s.geo.Lookup(ctx, cfg.PlaceID)
		if err != nil {
			return anchor{}, fmt.Errorf("%w: %w", ErrLocationResolution, err)
		}
		name := loc.Name
		if cfg.Location != "" {
			name = cfg.Location
		}
		return anchor{
			name: name,
			lat:  strconv.FormatFloat(loc.Lat, 'f', -1, 64),
			lng:  strconv.FormatFloat(loc.Lng, 'f', -1, 64),
		}, nil
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(cfg.Lat), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(cfg.Lng), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return anchor{}, fmt.Errorf("%w: need a place id or a valid lat/lng", ErrLocationResolution)
	}

	at := anchor{
		name: cfg.Location,
		lat:  strconv.FormatFloat(lat, 'f', -1, 64),
		lng:  strconv.FormatFloat(lng, 'f', -1, 64),
	}
	if at.name == "" {
		at.name = at.lat + "," + at.lng
	}
	return at, nil
}

// fetchCandidates searches every meal concurrently. Each goroutine owns one
// slot of the result, so no locking is needed.
func (s *Service) fetchCandidates(ctx context.Context, at anchor, need int) (candidates, error) {
	var found candidates

	g, gctx := errgroup.WithContext(ctx)
	for i, meal := range Meals {
		g.Go(func() error {
			list, err := s.searchMeal(gctx, at, meal, need)
			if err != nil {
				return fmt.Errorf("search %s: %w", meal.Name, err)
			}
			found[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidates{}, err
	}
	return found, nil
}

// searchMeal pages through results until it has need candidates or the
// provider runs out.
func (s *Service) searchMeal(ctx context.Context, at anchor, meal Meal, need int) ([]models.Business, error) {
	q := yelp.SearchQuery{
		Term:      s.profile.Term(meal.Name),
		Latitude:  at.lat,
		Longitude: at.lng,
		Radius:    s.profile.Radius,
		SortBy:    s.profile.SortBy,
		Limit:     pageSize,
	}

	var out []models.Business
	for page := 0; page < maxPages; page++ {
		results, err := s.search.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, b := range results {
			if b.ID != "" {
				out = append(out, b)
			}
		}
		if len(out) >= need || len(results) < q.Limit {
			break
		}
		q.Offset += len(results)
	}
	if out == nil {
		out = []models.Business{}
	}
	return out, nil
}

// assignDays gives day i the i-th candidate of every meal.
func assignDays(days []time.Time, found candidates) ([]models.Day, error) {
	out := make([]models.Day, 0, len(days))
	for i, day := range days {
		d := models.Day{Date: dates.FormatForSave(day)}
		for k, meal := range Meals {
			if i >= len(found[k]) {
				return nil, fmt.Errorf("%w: %d %s options for %d days", ErrInsufficientCandidates, len(found[k]), meal.Name, len(days))
			}
			d.SetMeal(meal.Code, found[k][i].ID)
		}
		out = append(out, d)
	}
	return out, nil
}
