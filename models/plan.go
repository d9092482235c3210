package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPlan = errors.New("plan: days are not valid")

// Plan is a multi-day restaurant itinerary.
type Plan struct {
	PlanID      string    `json:"id" bson:"_id"`
	Owner       string    `json:"owner,omitempty" bson:"owner,omitempty"`
	Location    string    `json:"location" bson:"location"`
	Lat         string    `json:"lat" bson:"lat"`
	Lng         string    `json:"lng" bson:"lng"`
	StartDate   string    `json:"startDate" bson:"startDate"`
	EndDate     string    `json:"endDate" bson:"endDate"`
	Name        string    `json:"name" bson:"name"`
	Days        []Day     `json:"days" bson:"days"`
	RejectedIDs []string  `json:"rejectedIds" bson:"rejectedIds"`
	Version     int64     `json:"version" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Day holds one business id per meal; Date uses the save layout.
type Day struct {
	Date string `json:"date" bson:"date"`
	B    string `json:"b" bson:"b"`
	L    string `json:"l" bson:"l"`
	D    string `json:"d" bson:"d"`
}

// Meal returns the business id for a meal code ("b", "l" or "d").
func (d Day) Meal(code string) string {
	switch code {
	case "b":
		return d.B
	case "l":
		return d.L
	case "d":
		return d.D
	}
	return ""
}

// SetMeal replaces the business id for a meal code.
func (d *Day) SetMeal(code, id string) {
	switch code {
	case "b":
		d.B = id
	case "l":
		d.L = id
	case "d":
		d.D = id
	}
}

// Validate enforces the write-time rules for a plan document.
func (p *Plan) Validate() error {
	if p.Days == nil {
		return fmt.Errorf("%w: no days", ErrInvalidPlan)
	}
	for i, day := range p.Days {
		if day.Date == "" || day.B == "" || day.L == "" || day.D == "" {
			return fmt.Errorf("%w: day %d is incomplete", ErrInvalidPlan, i)
		}
	}
	return nil
}

// DedupeRejected drops repeated ids from RejectedIDs, keeping first-seen order.
func (p *Plan) DedupeRejected() {
	seen := make(map[string]bool, len(p.RejectedIDs))
	out := make([]string, 0, len(p.RejectedIDs))
	for _, id := range p.RejectedIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	p.RejectedIDs = out
}
