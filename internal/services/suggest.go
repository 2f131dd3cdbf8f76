package services

import (
	"context"
	"fmt"
	"sort"

	"worklens/internal/classify"
	"worklens/internal/core"
)

// KeywordSuggestion is one proposed rule for a work name no current rule
// matches.
type KeywordSuggestion struct {
	Keyword   string  `json:"keyword"`
	WorkNames int     `json:"work_names"`
	Hours     float64 `json:"hours"`
}

// suggestionMarker is a label no real category uses, so an unmatched work
// name is distinguishable from one that matched a rule for the default
// category.
const suggestionMarker = "\x00unmatched"

// SuggestKeywords scans the current work records for names that no keyword
// rule matches and proposes one keyword per normalized name, ordered by the
// hours it would cover. Suggestions are advisory; nothing is written until
// ApplySuggestions.
func (s *AnalyticsService) SuggestKeywords(ctx context.Context, f core.Filter) ([]KeywordSuggestion, error) {
	totals, err := s.repo.WorkNameTotals(ctx, f)
	if err != nil {
		return nil, err
	}

	type agg struct {
		names map[string]bool
		hours float64
	}
	unmatched := make(map[string]*agg)
	var order []string

	for _, t := range totals {
		category, err := s.resolver.CategoryWithFallback(ctx, suggestionMarker, t.Category2, t.WorkName)
		if err != nil {
			return nil, fmt.Errorf("classify %q: %w", t.WorkName, err)
		}
		if category != suggestionMarker {
			continue
		}
		keyword := classify.Normalize(t.WorkName)
		if keyword == "" {
			continue
		}
		a, ok := unmatched[keyword]
		if !ok {
			a = &agg{names: make(map[string]bool)}
			unmatched[keyword] = a
			order = append(order, keyword)
		}
		a.names[t.WorkName] = true
		a.hours += t.Quantity
	}

	out := make([]KeywordSuggestion, 0, len(unmatched))
	for _, keyword := range order {
		a := unmatched[keyword]
		out = append(out, KeywordSuggestion{
			Keyword:   keyword,
			WorkNames: len(a.names),
			Hours:     round1(a.hours),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out, nil
}

// SuggestionChoice is one accepted suggestion: the keyword and the category
// it should map to.
type SuggestionChoice struct {
	Keyword    string `json:"keyword"`
	CategoryID int64  `json:"category_id"`
	Priority   int    `json:"priority"`
}

// ApplySuggestions turns accepted suggestions into active contains-rules,
// invalidating the category snapshot once at the end.
func (s *AdminService) ApplySuggestions(ctx context.Context, choices []SuggestionChoice) (int, error) {
	created := 0
	for _, c := range choices {
		rule := core.KeywordRule{
			Keyword:    c.Keyword,
			CategoryID: c.CategoryID,
			MatchType:  core.MatchContains,
			Priority:   c.Priority,
			IsActive:   true,
		}
		if _, err := s.repo.CreateKeywordRule(ctx, rule); err != nil {
			return created, fmt.Errorf("apply suggestion %q: %w", c.Keyword, err)
		}
		created++
	}
	if created > 0 {
		s.invalidate(ctx, core.AxisCategory)
	}
	return created, nil
}
