package domain

import (
	"context"
	"fmt"
)

// EntityType names the kind of entity a search hit refers to
type EntityType string

const (
	EntityCharacter EntityType = "character"
	EntityLocation  EntityType = "location"
	EntityEpisode   EntityType = "episode"
)

// SearchResult is a single semantic search hit
type SearchResult struct {
	EntityID   int            `json:"entity_id"`
	EntityType EntityType     `json:"entity_type"`
	Score      *float64       `json:"score"`
	EntityData map[string]any `json:"entity_data"`
}

// SearchInfo echoes the query parameters
type SearchInfo struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit"`
	TotalResults int    `json:"total_results"`
}

// SearchResponse is the semantic search payload
type SearchResponse struct {
	Info    SearchInfo     `json:"info"`
	Results []SearchResult `json:"results"`
}

// ListItem interface implementation for SearchResult

func (r SearchResult) GetID() int          { return r.EntityID }
func (r SearchResult) GetItemType() string { return string(r.EntityType) }

func (r SearchResult) GetTitle() string {
	if name, ok := r.EntityData["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s #%d", r.EntityType, r.EntityID)
}

func (r SearchResult) GetDescription() string {
	if r.Score == nil {
		return string(r.EntityType)
	}
	return fmt.Sprintf("%s · %.2f", r.EntityType, *r.Score)
}

// SearchClient provides network semantic search.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) (*SearchResponse, error)
}
