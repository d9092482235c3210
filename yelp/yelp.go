package yelp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripbite/models"
)

// ErrUpstream wraps every transport or provider failure.
var ErrUpstream = errors.New("yelp: upstream error")

const (
	DefaultRadius = 5000
	DefaultSort   = "rating"

	// MaxRadius is the widest radius the search endpoint accepts, in meters.
	MaxRadius = 40000
)

// SearchQuery carries the parameters of a business search. Zero values fall
// back to the provider defaults used across the app.
type SearchQuery struct {
	Term      string
	Latitude  string
	Longitude string
	Radius    int
	SortBy    string
	Limit     int
	Offset    int
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

type business struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Rating      float64    `json:"rating"`
	Categories  []category `json:"categories"`
	URL         string     `json:"url"`
	ReviewCount int        `json:"review_count"`
}

func (b business) toModel() models.Business {
	return models.Business{
		ID:          b.ID,
		Name:        b.Name,
		Rating:      b.Rating,
		Categories:  flattenCategories(b.Categories),
		URL:         b.URL,
		ReviewCount: b.ReviewCount,
	}
}

// flattenCategories joins category titles with ", ".
func flattenCategories(cats []category) string {
	titles := make([]string, 0, len(cats))
	for _, c := range cats {
		titles = append(titles, c.Title)
	}
	return strings.Join(titles, ", ")
}

// Search runs a business search and returns results in provider order.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]models.Business, error) {
	params := url.Values{}
	term := q.Term
	if term == "" {
		term = "restaurants"
	}
	params.Set("term", term)
	params.Set("latitude", q.Latitude)
	params.Set("longitude", q.Longitude)

	radius := q.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	if radius > MaxRadius {
		radius = MaxRadius
	}
	params.Set("radius", strconv.Itoa(radius))

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = DefaultSort
	}
	params.Set("sort_by", sortBy)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	var out struct {
		Businesses []business `json:"businesses"`
	}
	if err := c.get(ctx, "/v3/businesses/search?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	results := make([]models.Business, 0, len(out.Businesses))
	for _, b := range out.Businesses {
		results = append(results, b.toModel())
	}
	return results, nil
}

// Details fetches one business. When fields are given only those are kept on
// the result, using the provider's field names (name, rating, categories, url,
// review_count, id).
func (c *Client) Details(ctx context.Context, id string, fields ...string) (models.Business, error) {
	if id == "" {
		return models.Business{}, fmt.Errorf("%w: empty business id", ErrUpstream)
	}

	var b business
	if err := c.get(ctx, "/v3/businesses/"+url.PathEscape(id), &b); err != nil {
		return models.Business{}, err
	}
	return pick(b.toModel(), fields), nil
}

func pick(b models.Business, fields []string) models.Business {
	if len(fields) == 0 {
		return b
	}
	var out models.Business
	for _, f := range fields {
		switch f {
		case "id":
			out.ID = b.ID
		case "name":
			out.Name = b.Name
		case "rating":
			out.Rating = b.Rating
		case "categories":
			out.Categories = b.Categories
		case "url":
			out.URL = b.URL
		case "review_count":
			out.ReviewCount = b.ReviewCount
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
