package plans

import "errors"

var (
	ErrNotFound               = errors.New("plan not found")
	ErrDayNotFound            = errors.New("day not found in plan")
	ErrForbidden              = errors.New("plan belongs to another user")
	ErrLocationResolution     = errors.New("could not resolve plan location")
	ErrInsufficientCandidates = errors.New("not enough restaurants found for every day")
	ErrTripTooLong            = errors.New("trip is longer than the planner supports")
	ErrNoCandidateAvailable   = errors.New("no new restaurant available for this meal")
	ErrPersistence            = errors.New("plan storage failed")
	ErrConflict               = errors.New("plan was modified concurrently")
	ErrUnknownMeal            = errors.New("unknown meal")
)
