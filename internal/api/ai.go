package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/portal/internal/domain"
)

type backstoryRequest struct {
	Character domain.CharacterDetail `json:"character"`
}

type adventureRequest struct {
	Location domain.LocationDetail `json:"location"`
}

// Search runs a semantic search across characters, locations and episodes
func (c *Client) Search(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	var out domain.SearchResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/ai/search",
		endpoint: "/ai/search",
		query:    url.Values{"query": {query}, "limit": {strconv.Itoa(limit)}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &out, nil
}

// Health reports whether the AI backend is configured
func (c *Client) Health(ctx context.Context) (*domain.AIHealth, error) {
	var out domain.AIHealth
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/ai/health",
		endpoint: "/ai/health",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("ai health: %w", err)
	}
	return &out, nil
}

// GenerateBackstory asks the AI service for a character backstory
func (c *Client) GenerateBackstory(ctx context.Context, character domain.CharacterDetail) (*domain.Generation, error) {
	return c.generate(ctx, domain.KindBackstory, backstoryRequest{Character: character})
}

// GenerateAdventure asks the AI service for an adventure story set in a location
func (c *Client) GenerateAdventure(ctx context.Context, location domain.LocationDetail) (*domain.Generation, error) {
	return c.generate(ctx, domain.KindAdventure, adventureRequest{Location: location})
}

func (c *Client) generate(ctx context.Context, kind domain.GenerationKind, body any) (*domain.Generation, error) {
	path := fmt.Sprintf("/ai/%s/generate", kind)

	var out domain.Generation
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     path,
		endpoint: path,
		body:     body,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind.Label(), err)
	}
	return &out, nil
}

// Evaluate scores generated content, optionally with the LLM judge
func (c *Client) Evaluate(ctx context.Context, kind domain.GenerationKind, req domain.EvaluationRequest, useJudge bool) (*domain.Evaluation, error) {
	path := fmt.Sprintf("/ai/%s/evaluate", kind)

	var out domain.Evaluation
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     path,
		endpoint: path,
		query:    url.Values{"use_llm_judge": {strconv.FormatBool(useJudge)}},
		body:     req,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", kind.Label(), err)
	}
	return &out, nil
}
