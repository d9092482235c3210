package plans

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tripbite/dates"
	"tripbite/models"
	"tripbite/mq"
	"tripbite/yelp"
)

var suggestionFields = []string{"id", "name", "rating", "categories", "url", "review_count"}

type PlanOverview struct {
	ID          string        `json:"id"`
	Owner       string        `json:"owner,omitempty"`
	Location    string        `json:"location"`
	Lat         string        `json:"lat"`
	Lng         string        `json:"lng"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Name        string        `json:"name"`
	Days        []DayOverview `json:"days"`
	RejectedIDs []string      `json:"rejectedIds"`
	Version     int64         `json:"version"`
}

// DayOverview is a day with its ids resolved and its date in display form.
type DayOverview struct {
	Date string          `json:"date"`
	B    models.Business `json:"b"`
	L    models.Business `json:"l"`
	D    models.Business `json:"d"`
}

// LoadPlanOverview resolves every business of a plan with a single batched
// lookup. It never writes.
func (s *Service) LoadPlanOverview(ctx context.Context, id string) (*PlanOverview, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool, len(plan.Days)*len(Meals))
	for _, day := range plan.Days {
		for _, meal := range Meals {
			if bid := day.Meal(meal.Code); bid != "" && !seen[bid] {
				seen[bid] = true
				ids = append(ids, bid)
			}
		}
	}

	resolved, err := s.search.BatchDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve businesses: %w", err)
	}
	lookup := func(bid string) models.Business {
		if b, ok := resolved[bid]; ok {
			return b
		}
		return models.Business{ID: bid}
	}

	out := &PlanOverview{
		ID:          plan.PlanID,
		Owner:       plan.Owner,
		Location:    plan.Location,
		Lat:         plan.Lat,
		Lng:         plan.Lng,
		StartDate:   plan.StartDate,
		EndDate:     plan.EndDate,
		Name:        plan.Name,
		Days:        make([]DayOverview, 0, len(plan.Days)),
		RejectedIDs: plan.RejectedIDs,
		Version:     plan.Version,
	}
	if out.RejectedIDs == nil {
		out.RejectedIDs = []string{}
	}
	for _, day := range plan.Days {
		display := day.Date
		if t, err := dates.ParseSave(day.Date); err == nil {
			display = dates.FormatForDisplay(t)
		}
		out.Days = append(out.Days, DayOverview{
			Date: display,
			B:    lookup(day.B),
			L:    lookup(day.L),
			D:    lookup(day.D),
		})
	}
	return out, nil
}

// NewSuggestion replaces one meal of one day with the first search result
// that is not selected anywhere in the plan and was never rejected. The
// replaced id is recorded as rejected.
//
// date may be in display form ("Mar 1st, 2021 (Mon)") or save form.
//
// Once the plan is stored the swap is committed. If the details lookup fails
// after that, the result carries only the new id and no error is returned.
func (s *Service) NewSuggestion(ctx context.Context, id, date, mealName string) (models.Business, error) {
	plan, err := s.loadOwned(ctx, id)
	if err != nil {
		return models.Business{}, err
	}

	meal, err := ParseMeal(mealName)
	if err != nil {
		return models.Business{}, err
	}
	target, err := dates.ParseDisplay(date)
	if err != nil {
		var saveErr error
		if target, saveErr = dates.ParseSave(date); saveErr != nil {
			return models.Business{}, err
		}
	}

	idx := findDay(plan.Days, target)
	if idx < 0 {
		return models.Business{}, fmt.Errorf("%w: %s", ErrDayNotFound, dates.FormatForSave(target))
	}

	current := plan.Days[idx].Meal(meal.Code)
	exclude := exclusionSet(plan, current)

	newID, err := s.findReplacement(ctx, plan, meal, exclude)
	if err != nil {
		return models.Business{}, err
	}

	if current != "" {
		plan.RejectedIDs = append(plan.RejectedIDs, current)
	}
	plan.Days[idx].SetMeal(meal.Code, newID)
	plan.DedupeRejected()
	plan.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, plan); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			return models.Business{}, err
		}
		return models.Business{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.emit(ctx, mq.Event{
		Name:       mq.SuggestionReplaced,
		PlanID:     plan.PlanID,
		Owner:      plan.Owner,
		Date:       plan.Days[idx].Date,
		Meal:       meal.Name,
		PreviousID: current,
		NewID:      newID,
	})

	b, err := s.search.Details(ctx, newID, suggestionFields...)
	if err != nil {
		log.Printf("[plans] details for suggestion %s on plan %s: %v", newID, plan.PlanID, err)
		return models.Business{ID: newID}, nil
	}
	return b, nil
}

// findDay returns the index of the first day on target's calendar date.
func findDay(days []models.Day, target time.Time) int {
	for i, day := range days {
		t, err := dates.ParseSave(day.Date)
		if err != nil {
			continue
		}
		if dates.SameDay(t, target) {
			return i
		}
	}
	return -1
}

// exclusionSet is every id selected on any day, every rejected id and the
// id being replaced.
func exclusionSet(plan *models.Plan, current string) map[string]bool {
	exclude := make(map[string]bool, len(plan.Days)*len(Meals)+len(plan.RejectedIDs)+1)
	for _, day := range plan.Days {
		for _, meal := range Meals {
			if bid := day.Meal(meal.Code); bid != "" {
				exclude[bid] = true
			}
		}
	}
	for _, bid := range plan.RejectedIDs {
		exclude[bid] = true
	}
	if current != "" {
		exclude[current] = true
	}
	return exclude
}

// findReplacement searches around the plan's anchor. When nothing new turns
// up it tries once more with twice the radius.
func (s *Service) findReplacement(ctx context.Context, plan *models.Plan, meal Meal, exclude map[string]bool) (string, error) {
	radius := s.profile.Radius
	if radius <= 0 {
		radius = yelp.DefaultRadius
	}
	q := yelp.SearchQuery{
		Term:      s.profile.Term(meal.Name),
		Latitude:  plan.Lat,
		Longitude: plan.Lng,
		Radius:    radius,
		SortBy:    s.profile.SortBy,
		Limit:     pageSize,
	}

	for attempt := 0; attempt < 2; attempt++ {
		results, err := s.search.Search(ctx, q)
		if err != nil {
			return "", fmt.Errorf("search %s: %w", meal.Name, err)
		}
		if id := firstUnused(results, exclude); id != "" {
			return id, nil
		}

		wider := min(q.Radius*2, yelp.MaxRadius)
		if wider <= q.Radius {
			break
		}
		q.Radius = wider
	}
	return "", fmt.Errorf("%w: %s near %s", ErrNoCandidateAvailable, meal.Name, plan.Location)
}

func firstUnused(results []models.Business, exclude map[string]bool) string {
	for _, b := range results {
		if b.ID != "" && !exclude[b.ID] {
			return b.ID
		}
	}
	return ""
}
