package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/portal/internal/domain"
)

// GetLocations returns one page of locations without residents
func (c *Client) GetLocations(ctx context.Context, page int) (*domain.Page[domain.Location], error) {
	var out domain.Page[domain.Location]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/locations",
		endpoint: "/locations",
		query:    pageQuery(page),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get locations page %d: %w", page, err)
	}
	return &out, nil
}

// GetLocationsWithResidents returns one page of locations with residents expanded
func (c *Client) GetLocationsWithResidents(ctx context.Context, page int) (*domain.Page[domain.LocationDetail], error) {
	query := pageQuery(page)
	query.Set("include_residents", "true")

	var out domain.Page[domain.LocationDetail]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/locations",
		endpoint: "/locations?include_residents",
		query:    query,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get locations page %d: %w", page, err)
	}
	return &out, nil
}

// GetLocation returns a single location with residents
func (c *Client) GetLocation(ctx context.Context, id int) (*domain.LocationDetail, error) {
	loc, err := getShared[domain.LocationDetail](ctx, c, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/locations/%d", id),
		endpoint: "/locations/{id}",
	})
	if err != nil {
		return nil, fmt.Errorf("get location %d: %w", id, err)
	}
	return loc, nil
}

// GetCharacters returns one page of characters
func (c *Client) GetCharacters(ctx context.Context, page int) (*domain.Page[domain.Character], error) {
	var out domain.Page[domain.Character]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/characters",
		endpoint: "/characters",
		query:    pageQuery(page),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get characters page %d: %w", page, err)
	}
	return &out, nil
}

// GetCharacter returns the full record for a character
func (c *Client) GetCharacter(ctx context.Context, id int) (*domain.CharacterDetail, error) {
	char, err := getShared[domain.CharacterDetail](ctx, c, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/characters/%d", id),
		endpoint: "/characters/{id}",
	})
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}
	return char, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}
