package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/portal/internal/domain"
)

// FilterResult is a filter hit with match metadata for highlighting
type FilterResult struct {
	Item           domain.ListItem
	Index          int   // Position in the filtered slice
	MatchedIndexes []int // Byte offsets in the title that matched
	Score          int   // Higher is better
}

// titleSource implements sahilm/fuzzy.Source over item titles
type titleSource []domain.ListItem

func (s titleSource) String(i int) string { return s[i].GetTitle() }
func (s titleSource) Len() int            { return len(s) }

// Filter fuzzy-matches query against item titles, best match first.
// An empty query matches nothing; callers show the unfiltered list instead.
func Filter(query string, items []domain.ListItem) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, titleSource(items))

	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			Item:           items[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Rank orders items by how closely their titles match query, case-insensitively.
// Items that do not contain the query characters in order are dropped.
func Rank(query string, items []domain.ListItem) []domain.ListItem {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.GetTitle()
	}

	ranks := lfuzzy.RankFindFold(query, titles)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]domain.ListItem, len(ranks))
	for i, r := range ranks {
		out[i] = items[r.OriginalIndex]
	}
	return out
}
