// Package classify implements the priority-ordered keyword rule matcher and
// the work-name normalizer. Both are pure: no I/O, no shared state.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"worklens/internal/core"
)

// Rule is one materialized matching rule. The rule stores build snapshots of
// these from the database: active rules only, keywords lower-cased, sorted by
// descending priority (ties keep insertion order). Classify trusts that
// ordering and does no sorting of its own.
type Rule struct {
	Keyword  string
	Match    core.MatchType
	Label    string
	ParentID int64 // sub-category axis only; 0 means any parent
	Priority int
}

// Classify resolves one label from the given candidate texts using
// first-match-wins over the rule list. Every candidate is lower-cased before
// matching; a rule matches if any candidate satisfies its match type. If no
// rule matches, or all candidates are empty, the fallback label is returned.
func Classify(rules []Rule, fallback string, texts ...string) string {
	return ClassifyScoped(rules, 0, fallback, texts...)
}

// ClassifyScoped is Classify restricted to rules whose ParentID matches the
// given parent (rules with ParentID 0 always apply). A parentID of 0 disables
// the scoping entirely.
func ClassifyScoped(rules []Rule, parentID int64, fallback string, texts ...string) string {
	candidates := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t != "" {
			candidates = append(candidates, strings.ToLower(t))
		}
	}
	if len(candidates) == 0 {
		return fallback
	}

	for _, rule := range rules {
		if parentID != 0 && rule.ParentID != 0 && rule.ParentID != parentID {
			continue
		}
		for _, text := range candidates {
			if matches(rule, text) {
				return rule.Label
			}
		}
	}
	return fallback
}

// matches expects text already lower-cased.
func matches(r Rule, text string) bool {
	switch r.Match {
	case core.MatchExact:
		return text == r.Keyword
	case core.MatchStartsWith:
		return strings.HasPrefix(text, r.Keyword)
	case core.MatchContains:
		return strings.Contains(text, r.Keyword)
	case core.MatchSuffix:
		return strings.HasSuffix(text, r.Keyword)
	}
	return false
}

// ValidateRules rejects rule lists carrying match types the axis does not
// allow. Malformed rule data is a configuration error and must surface at
// load time, never as a silent misclassification.
func ValidateRules(axis core.RuleAxis, rules []Rule) error {
	for _, r := range rules {
		if strings.TrimSpace(r.Keyword) == "" {
			return fmt.Errorf("axis %s: %w", axis, core.ErrEmptyKeyword)
		}
		if !core.ValidMatchType(axis, r.Match) {
			return fmt.Errorf("axis %s: keyword %q: %w: %q", axis, r.Keyword, core.ErrInvalidMatchType, r.Match)
		}
	}
	return nil
}

// Sort orders rules by descending priority, keeping the incoming order for
// equal priorities. Callers must not rely on tie order being meaningful.
func Sort(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
