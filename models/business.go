package models

// Business is a restaurant as returned by the search provider. It is never
// stored; plans only keep the ID.
type Business struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Categories  string  `json:"categories,omitempty"`
	URL         string  `json:"url,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
}
