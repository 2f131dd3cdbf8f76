package classify

import (
	"testing"

	"worklens/internal/core"
)

func TestClassifyMatchTypes(t *testing.T) {
	rules := []Rule{
		{Keyword: "定例会議", Match: core.MatchExact, Label: "exact", Priority: 40},
		{Keyword: "施工", Match: core.MatchStartsWith, Label: "starts", Priority: 30},
		{Keyword: "対応", Match: core.MatchSuffix, Label: "suffix", Priority: 20},
		{Keyword: "入力", Match: core.MatchContains, Label: "contains", Priority: 10},
	}

	cases := []struct {
		text string
		want string
	}{
		{"定例会議", "exact"},
		{"定例会議メモ", "starts_no"}, // exact must not prefix-match
		{"施工ノート入力", "starts"},
		{"電話対応", "suffix"},
		{"対応メモ", "fallback"}, // suffix must not match mid-string
		{"データ入力作業", "contains"},
		{"全く関係ない", "fallback"},
		{"", "fallback"},
		{"   ", "fallback"},
	}
	for i, tc := range cases {
		want := tc.want
		if want == "starts_no" {
			want = "fallback"
		}
		got := Classify(rules, "fallback", tc.text)
		if got != want {
			t.Errorf("case %d (%q): got %q, want %q", i, tc.text, got, want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	rules := []Rule{
		{Keyword: "tel", Match: core.MatchContains, Label: "phone", Priority: 10},
	}
	for _, text := range []string{"TEL対応", "Tel対応", "tel対応"} {
		if got := Classify(rules, "other", text); got != "phone" {
			t.Errorf("Classify(%q) = %q, want phone", text, got)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Both rules match; the higher priority one sits first after Sort.
	rules := []Rule{
		{Keyword: "入力", Match: core.MatchContains, Label: "low", Priority: 5},
		{Keyword: "施工", Match: core.MatchContains, Label: "high", Priority: 30},
	}
	Sort(rules)
	if got := Classify(rules, "fallback", "施工ノート入力"); got != "high" {
		t.Fatalf("got %q, want high", got)
	}
}

func TestClassifyTieKeepsInsertionOrder(t *testing.T) {
	rules := []Rule{
		{Keyword: "入力", Match: core.MatchContains, Label: "first", Priority: 10},
		{Keyword: "ノート", Match: core.MatchContains, Label: "second", Priority: 10},
	}
	Sort(rules)
	if got := Classify(rules, "fallback", "施工ノート入力"); got != "first" {
		t.Fatalf("got %q, want first on equal priority", got)
	}
}

func TestClassifyMultipleCandidates(t *testing.T) {
	rules := []Rule{
		{Keyword: "会議", Match: core.MatchContains, Label: "meeting", Priority: 10},
	}
	// Second candidate carries the keyword.
	if got := Classify(rules, "fallback", "その他", "定例会議"); got != "meeting" {
		t.Fatalf("got %q, want meeting", got)
	}
	// All candidates blank falls through to the fallback.
	if got := Classify(rules, "fallback", "", "  "); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestClassifyScoped(t *testing.T) {
	rules := []Rule{
		{Keyword: "作成", Match: core.MatchSuffix, Label: "scoped", ParentID: 2, Priority: 20},
		{Keyword: "作成", Match: core.MatchSuffix, Label: "global", ParentID: 0, Priority: 10},
	}

	if got := ClassifyScoped(rules, 2, "fallback", "資料作成"); got != "scoped" {
		t.Errorf("parent 2: got %q, want scoped", got)
	}
	// A different parent skips the scoped rule but keeps the global one.
	if got := ClassifyScoped(rules, 3, "fallback", "資料作成"); got != "global" {
		t.Errorf("parent 3: got %q, want global", got)
	}
	// Parent 0 disables scoping entirely.
	if got := ClassifyScoped(rules, 0, "fallback", "資料作成"); got != "scoped" {
		t.Errorf("parent 0: got %q, want scoped", got)
	}
}

func TestValidateRules(t *testing.T) {
	cases := []struct {
		name  string
		axis  core.RuleAxis
		rules []Rule
		ok    bool
	}{
		{"category contains", core.AxisCategory, []Rule{{Keyword: "a", Match: core.MatchContains}}, true},
		{"category suffix rejected", core.AxisCategory, []Rule{{Keyword: "a", Match: core.MatchSuffix}}, false},
		{"unit suffix allowed", core.AxisUnitType, []Rule{{Keyword: "a", Match: core.MatchSuffix}}, true},
		{"sub suffix allowed", core.AxisSubCategory, []Rule{{Keyword: "a", Match: core.MatchSuffix}}, true},
		{"empty keyword", core.AxisCategory, []Rule{{Keyword: "  ", Match: core.MatchContains}}, false},
		{"unknown match type", core.AxisUnitType, []Rule{{Keyword: "a", Match: core.MatchType("regex")}}, false},
	}
	for _, tc := range cases {
		err := ValidateRules(tc.axis, tc.rules)
		if tc.ok && err != nil {
			t.Errorf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestSortStable(t *testing.T) {
	rules := []Rule{
		{Keyword: "c", Priority: 10},
		{Keyword: "a", Priority: 30},
		{Keyword: "b", Priority: 10},
	}
	Sort(rules)
	got := []string{rules[0].Keyword, rules[1].Keyword, rules[2].Keyword}
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}
