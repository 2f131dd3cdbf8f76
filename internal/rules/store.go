// Package rules owns the materialized rule snapshots the classification hot
// path runs on. The store is an explicit cache object: constructed once per
// process, injected where needed, and invalidated by whatever operation
// mutates the underlying rule tables. There is no TTL; a worker that never
// hears about a mutation keeps serving the previous generation, which is the
// accepted staleness window in multi-process deployments (see DESIGN.md).
package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"worklens/internal/classify"
	"worklens/internal/core"
)

// Extra invalidation axes beyond the three rule tables.
const (
	AxisReduction core.RuleAxis = "reduction"
	AxisSettings  core.RuleAxis = "settings"
)

// DefaultCategoryKey is the one setting the classification core reads.
const DefaultCategoryKey = "default_category"

// DefaultCategoryFallback applies when the setting row itself is missing.
const DefaultCategoryFallback = "コア業務"

type (
	// KeywordRuleRow is a keyword rule joined with its category name, the
	// shape the snapshot builder needs.
	KeywordRuleRow struct {
		Keyword      string
		CategoryName string
		MatchType    core.MatchType
		Priority     int
	}

	// Repository is the rule-table read surface the store caches over.
	Repository interface {
		ActiveKeywordRules(ctx context.Context) ([]KeywordRuleRow, error)
		ActiveUnitRules(ctx context.Context) ([]core.UnitTypeRule, error)
		ActiveSubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error)
		ReductionCategories(ctx context.Context) ([]string, error)
		ReductionWorkNames(ctx context.Context) ([]string, error)
		SettingString(ctx context.Context, key, fallback string) (string, error)
	}

	// Store holds one lazily-built snapshot per axis. Snapshots are active
	// rules only, keywords lower-cased, sorted by descending priority with
	// insertion order preserved on ties.
	Store struct {
		repo Repository

		mu              sync.Mutex
		categoryRules   []classify.Rule
		unitRules       []classify.Rule
		subRules        []classify.Rule
		reductionCats   map[string]struct{}
		reductionNames  map[string]struct{}
		defaultCategory string
		defaultLoaded   bool
	}
)

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Invalidate drops the snapshot for the given axes. Must be called by every
// operation that mutates the corresponding rule set, in the same operation
// scope as the commit. With no axes given, everything is dropped.
func (s *Store) Invalidate(axes ...core.RuleAxis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(axes) == 0 {
		axes = []core.RuleAxis{core.AxisCategory, core.AxisUnitType, core.AxisSubCategory, AxisReduction, AxisSettings}
	}
	for _, axis := range axes {
		switch axis {
		case core.AxisCategory:
			s.categoryRules = nil
			// Category mutations can change reduction flags too.
			s.reductionCats = nil
		case core.AxisUnitType:
			s.unitRules = nil
		case core.AxisSubCategory:
			s.subRules = nil
		case AxisReduction:
			s.reductionCats = nil
			s.reductionNames = nil
		case AxisSettings:
			s.defaultCategory = ""
			s.defaultLoaded = false
		}
	}
}

// CategoryRules returns the display-category rule snapshot, building it on
// first access after an invalidation.
func (s *Store) CategoryRules(ctx context.Context) ([]classify.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryRules != nil {
		return s.categoryRules, nil
	}
	rows, err := s.repo.ActiveKeywordRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keyword rules: %w", err)
	}
	rules := make([]classify.Rule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, classify.Rule{
			Keyword:  strings.ToLower(r.Keyword),
			Match:    r.MatchType,
			Label:    r.CategoryName,
			Priority: r.Priority,
		})
	}
	classify.Sort(rules)
	if err := classify.ValidateRules(core.AxisCategory, rules); err != nil {
		return nil, err
	}
	s.categoryRules = rules
	return rules, nil
}

// UnitRules returns the unit-type rule snapshot.
func (s *Store) UnitRules(ctx context.Context) ([]classify.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unitRules != nil {
		return s.unitRules, nil
	}
	rows, err := s.repo.ActiveUnitRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unit type rules: %w", err)
	}
	rules := make([]classify.Rule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, classify.Rule{
			Keyword:  strings.ToLower(r.Keyword),
			Match:    r.MatchType,
			Label:    string(r.UnitType),
			Priority: r.Priority,
		})
	}
	classify.Sort(rules)
	if err := classify.ValidateRules(core.AxisUnitType, rules); err != nil {
		return nil, err
	}
	s.unitRules = rules
	return rules, nil
}

// SubCategoryRules returns the sub-category rule snapshot.
func (s *Store) SubCategoryRules(ctx context.Context) ([]classify.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subRules != nil {
		return s.subRules, nil
	}
	rows, err := s.repo.ActiveSubCategoryRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sub category rules: %w", err)
	}
	rules := make([]classify.Rule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, classify.Rule{
			Keyword:  strings.ToLower(r.Keyword),
			Match:    r.MatchType,
			Label:    r.SubCategoryName,
			ParentID: r.ParentCategoryID,
			Priority: r.Priority,
		})
	}
	classify.Sort(rules)
	if err := classify.ValidateRules(core.AxisSubCategory, rules); err != nil {
		return nil, err
	}
	s.subRules = rules
	return rules, nil
}

// ReductionCategories returns the set of reduction-flagged category names.
func (s *Store) ReductionCategories(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reductionCats != nil {
		return s.reductionCats, nil
	}
	names, err := s.repo.ReductionCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reduction categories: %w", err)
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	s.reductionCats = set
	return set, nil
}

// ReductionWorkNames returns the set of exact work names flagged as
// reduction targets.
func (s *Store) ReductionWorkNames(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reductionNames != nil {
		return s.reductionNames, nil
	}
	names, err := s.repo.ReductionWorkNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reduction work names: %w", err)
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	s.reductionNames = set
	return set, nil
}

// DefaultCategory returns the fallback label used when no rule matches.
func (s *Store) DefaultCategory(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.defaultLoaded {
		return s.defaultCategory, nil
	}
	value, err := s.repo.SettingString(ctx, DefaultCategoryKey, DefaultCategoryFallback)
	if err != nil {
		return "", fmt.Errorf("load default category: %w", err)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("setting %q is empty", DefaultCategoryKey)
	}
	s.defaultCategory = value
	s.defaultLoaded = true
	return value, nil
}
