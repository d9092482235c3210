package plans

import (
	"fmt"
	"strings"
)

// Meal is one of the three daily slots. Code is the field name on a Day.
type Meal struct {
	Code string
	Name string
}

var Meals = [3]Meal{
	{Code: "b", Name: "breakfast"},
	{Code: "l", Name: "lunch"},
	{Code: "d", Name: "dinner"},
}

// ParseMeal accepts a meal name or code in any case: "Dinner", "d".
func ParseMeal(s string) (Meal, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Meals {
		if s == m.Code || s == m.Name {
			return m, nil
		}
	}
	return Meal{}, fmt.Errorf("%w: %q", ErrUnknownMeal, s)
}
