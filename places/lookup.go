package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gplaces "google.golang.org/api/places/v1"
)

var ErrUpstream = errors.New("places: upstream error")

const lookupFields = "id,displayName,formattedAddress,location"

// Location is a resolved place: a display name and its center coordinate.
type Location struct {
	PlaceID string
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

type Client struct {
	svc *gplaces.Service
}

// NewClient builds a Places (New) API client. Extra options are passed to the
// underlying service, e.g. option.WithEndpoint in tests.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := gplaces.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create places service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Lookup resolves a Google place id to its name and coordinate.
func (c *Client) Lookup(ctx context.Context, placeID string) (Location, error) {
	placeID = strings.TrimPrefix(strings.TrimSpace(placeID), "places/")
	if placeID == "" {
		return Location{}, fmt.Errorf("%w: empty place id", ErrUpstream)
	}

	place, err := c.svc.Places.Get("places/" + placeID).
		Fields(googleapi.Field(lookupFields)).
		Context(ctx).
		Do()
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if place.Location == nil {
		return Location{}, fmt.Errorf("%w: place %s has no location", ErrUpstream, placeID)
	}

	loc := Location{
		PlaceID: placeID,
		Address: place.FormattedAddress,
		Lat:     place.Location.Latitude,
		Lng:     place.Location.Longitude,
	}
	if place.DisplayName != nil {
		loc.Name = place.DisplayName.Text
	}
	if loc.Name == "" {
		loc.Name = loc.Address
	}
	return loc, nil
}
