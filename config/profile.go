package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile tunes the restaurant searches behind plan building and suggestions.
//
//	radius: 8000
//	sort_by: rating
//	terms:
//	  breakfast: brunch
type Profile struct {
	Radius int               `yaml:"radius"`
	SortBy string            `yaml:"sort_by"`
	Terms  map[string]string `yaml:"terms"`
}

func DefaultProfile() Profile {
	return Profile{
		Radius: 5000,
		SortBy: "rating",
		Terms: map[string]string{
			"breakfast": "breakfast restaurants",
			"lunch":     "lunch restaurants",
			"dinner":    "dinner restaurants",
		},
	}
}

// LoadProfile reads a YAML profile; anything it leaves out keeps the default.
func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read search profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse search profile %s: %w", path, err)
	}

	def := DefaultProfile()
	if p.Radius <= 0 {
		p.Radius = def.Radius
	}
	if p.SortBy == "" {
		p.SortBy = def.SortBy
	}
	if p.Terms == nil {
		p.Terms = map[string]string{}
	}
	for meal, term := range def.Terms {
		if p.Terms[meal] == "" {
			p.Terms[meal] = term
		}
	}
	return p, nil
}

// Term returns the search term for a meal name such as "lunch".
func (p Profile) Term(meal string) string {
	if t := p.Terms[meal]; t != "" {
		return t
	}
	return meal + " restaurants"
}
