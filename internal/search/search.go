package search

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mmcdole/portal/internal/domain"
)

const (
	// DefaultLimit is used when no limit is configured
	DefaultLimit = 5

	// MaxLimit is the largest limit the server accepts
	MaxLimit = 50
)

// Outcome is a search response and where it came from
type Outcome struct {
	Response *domain.SearchResponse
	Offline  bool  // Ranked locally because the AI service was unavailable
	Cause    error // Why the semantic search failed, when Offline
}

// Service runs semantic searches and keeps a local index of loaded
// characters and locations to rank against when the server can't.
type Service struct {
	client       domain.SearchClient
	defaultLimit int
	logger       *slog.Logger

	indexMu sync.RWMutex
	index   []domain.ListItem
	indexed map[string]bool // "type:id"
}

// NewService creates a new search service
func NewService(client domain.SearchClient, defaultLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:       client,
		defaultLimit: ClampLimit(defaultLimit, DefaultLimit),
		logger:       logger,
		indexed:      make(map[string]bool),
	}
}

// ClampLimit bounds limit to 1..MaxLimit, using fallback when limit is unset
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	return max(1, min(limit, MaxLimit))
}

// Semantic runs a server-side semantic search. limit <= 0 uses the configured default.
func (s *Service) Semantic(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	limit = ClampLimit(limit, s.defaultLimit)

	s.logger.Debug("searching", "query", query, "limit", limit)

	resp, err := s.client.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("semantic search failed", "error", err, "query", query)
		return nil, err
	}

	s.logger.Debug("search complete", "query", query, "results", len(resp.Results))
	return resp, nil
}

// Search runs a semantic search and falls back to ranking the local index
// when the AI service is unreachable or unavailable.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Outcome, error) {
	resp, err := s.Semantic(ctx, query, limit)
	if err == nil {
		return &Outcome{Response: resp}, nil
	}
	if !fallbackAllowed(err) {
		return nil, err
	}

	s.logger.Warn("server search failed, falling back to local", "error", err)
	return &Outcome{
		Response: s.Fallback(strings.TrimSpace(query), ClampLimit(limit, s.defaultLimit)),
		Offline:  true,
		Cause:    err,
	}, nil
}

func fallbackAllowed(err error) bool {
	return errors.Is(err, domain.ErrServerOffline) ||
		errors.Is(err, domain.ErrGenerationUnavailable) ||
		errors.Is(err, domain.ErrServerError)
}

// Fallback ranks the local index against query and shapes the hits like a
// server response. Local hits carry no score.
func (s *Service) Fallback(query string, limit int) *domain.SearchResponse {
	s.indexMu.RLock()
	ranked := Rank(query, s.index)
	s.indexMu.RUnlock()

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]domain.SearchResult, 0, len(ranked))
	for _, item := range ranked {
		results = append(results, domain.SearchResult{
			EntityID:   item.GetID(),
			EntityType: domain.EntityType(item.GetItemType()),
			EntityData: map[string]any{"name": item.GetTitle()},
		})
	}

	return &domain.SearchResponse{
		Info:    domain.SearchInfo{Query: query, Limit: limit, TotalResults: len(results)},
		Results: results,
	}
}

// IndexItems adds items to the local index, skipping ones already present
func (s *Service) IndexItems(items ...domain.ListItem) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	added := 0
	for _, item := range items {
		key := indexKey(item)
		if s.indexed[key] {
			continue
		}
		s.indexed[key] = true
		s.index = append(s.index, item)
		added++
	}

	if added > 0 {
		s.logger.Debug("indexed items for search", "added", added, "total", len(s.index))
	}
}

// IndexCount returns the number of locally indexed items
func (s *Service) IndexCount() int {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return len(s.index)
}

// ClearIndex removes all items from the local index
func (s *Service) ClearIndex() {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	s.index = nil
	s.indexed = make(map[string]bool)
	s.logger.Debug("cleared search index")
}

func indexKey(item domain.ListItem) string {
	return item.GetItemType() + ":" + strconv.Itoa(item.GetID())
}
