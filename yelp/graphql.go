package yelp

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tripbite/models"
)

const bizInfoFragment = "fragment bizInfo on Business { id\nname\nrating\ncategories { title }\nurl\nreview_count }"

type graphqlResponse struct {
	Data   map[string]*business `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// BuildBatchQuery returns a GraphQL document that looks up every id under an
// alias, along with the alias assigned to each id. Duplicate ids share one
// alias.
func BuildBatchQuery(ids []string) (string, map[string]string) {
	aliases := make(map[string]string, len(ids))
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := aliases[id]; ok {
			continue
		}
		alias := "a" + strconv.Itoa(len(aliases))
		aliases[id] = alias
		fmt.Fprintf(&sb, "%s: business(id: %s) { ...bizInfo }\n", alias, strconv.Quote(id))
	}
	sb.WriteString("} ")
	sb.WriteString(bizInfoFragment)
	return sb.String(), aliases
}

// BatchDetails resolves many business ids with a single GraphQL request.
// Ids the provider cannot resolve are left out of the result.
func (c *Client) BatchDetails(ctx context.Context, ids []string) (map[string]models.Business, error) {
	query, aliases := BuildBatchQuery(ids)
	result := make(map[string]models.Business, len(aliases))
	if len(aliases) == 0 {
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/graphql", strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/graphql")

	var resp graphqlResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 && len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql: %s", ErrUpstream, resp.Errors[0].Message)
	}
	for _, e := range resp.Errors {
		log.Printf("yelp graphql: %s", e.Message)
	}

	for id, alias := range aliases {
		b := resp.Data[alias]
		if b == nil {
			continue
		}
		m := b.toModel()
		if m.ID == "" {
			m.ID = id
		}
		result[id] = m
	}
	return result, nil
}
