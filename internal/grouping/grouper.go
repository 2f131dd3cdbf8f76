// Package grouping collapses near-duplicate work-item names into canonical
// groups, and folds already-aggregated ranking rows into coarse task
// families. The fine-grained pass rides on classify.Normalize; the family
// pass has its own, deliberately coarser, keyword tables.
package grouping

import (
	"regexp"
	"sort"

	"worklens/internal/classify"
)

type (
	// Group is one set of raw names sharing a normalized representative.
	Group struct {
		Representative string   `json:"representative"`
		Members        []string `json:"members"`
	}

	// Result reports the compression achieved by a grouping run.
	Result struct {
		Groups        []Group `json:"groups"`
		OriginalCount int     `json:"original_count"`
		GroupedCount  int     `json:"grouped_count"`
	}

	mergePattern struct {
		re      *regexp.Regexp
		unified string
	}
)

// meetingSynonyms is the one shared catalog of meeting-term variants. Both
// the merge patterns and the family tables derive from it, so the two passes
// cannot drift apart.
var meetingSynonyms = []string{"MTG", "ミーティング", "会議", "打ち合わせ", "打合せ"}

// mergePatterns is the ordered second-pass catalog: a group whose
// representative matches a pattern is folded into the unified label. First
// match wins.
var mergePatterns = buildMergePatterns()

func buildMergePatterns() []mergePattern {
	patterns := []mergePattern{
		{regexp.MustCompile(`(?i)電話.*対応`), "電話対応"},
		{regexp.MustCompile(`(?i)メール.*対応`), "メール対応"},
		{regexp.MustCompile(`(?i)電話.*メール`), "電話/メール対応"},
		{regexp.MustCompile(`(?i)移動`), "移動"},
	}
	for _, syn := range meetingSynonyms {
		patterns = append(patterns, mergePattern{
			re:      regexp.MustCompile(`(?i)` + regexp.QuoteMeta(syn)),
			unified: "会議",
		})
	}
	return patterns
}

// GroupWorkNames groups raw names by normalized key. Empty names and names
// normalizing to the empty string are skipped.
func GroupWorkNames(names []string) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range names {
		if name == "" {
			continue
		}
		key := classify.Normalize(name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], name)
	}
	return groups
}

// ApplyMergePatterns folds groups whose representative matches a merge
// pattern into the pattern's unified label. The fold is one-directional:
// groups landing on the same label are combined.
func ApplyMergePatterns(groups map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(groups))
	for rep, members := range groups {
		target := rep
		for _, p := range mergePatterns {
			if p.re.MatchString(rep) {
				target = p.unified
				break
			}
		}
		merged[target] = append(merged[target], members...)
	}
	return merged
}

// LocalGroupTasks is the main fine-grained grouping entry point: dedupe the
// input, group by normalized key, optionally apply the broader merge pass.
// Every non-empty input name lands in exactly one group.
func LocalGroupTasks(workNames []string, applyMerge bool) Result {
	seen := make(map[string]struct{}, len(workNames))
	unique := make([]string, 0, len(workNames))
	for _, name := range workNames {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	if len(unique) == 0 {
		return Result{Groups: []Group{}}
	}

	grouped := GroupWorkNames(unique)
	if applyMerge {
		grouped = ApplyMergePatterns(grouped)
	}

	groups := make([]Group, 0, len(grouped))
	for rep, members := range grouped {
		groups = append(groups, Group{
			Representative: rep,
			Members:        dedupeSorted(members),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Representative < groups[j].Representative
	})

	return Result{
		Groups:        groups,
		OriginalCount: len(unique),
		GroupedCount:  len(groups),
	}
}

func dedupeSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
