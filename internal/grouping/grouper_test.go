package grouping

import (
	"reflect"
	"testing"
)

func TestGroupWorkNames(t *testing.T) {
	names := []string{
		"施工ノート入力",
		"施工ノート入力（修正）",
		"施工ノート入力A",
		"TEL対応",
		"電話対応",
		"",
	}
	groups := GroupWorkNames(names)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(groups), groups)
	}
	if got := groups["施工ノート入力"]; len(got) != 3 {
		t.Errorf("施工ノート入力 members = %v, want 3", got)
	}
	if got := groups["電話対応"]; len(got) != 2 {
		t.Errorf("電話対応 members = %v, want 2", got)
	}
}

func TestApplyMergePatterns(t *testing.T) {
	groups := map[string][]string{
		"電話対応":      {"電話対応"},
		"電話クレーム対応":  {"電話クレーム対応"},
		"会議定例":      {"MTG定例"},
		"ミーティング準備":  {"ミーティング準備"},
		"打ち合わせ":     {"打ち合わせ"},
		"現場移動":      {"現場移動"},
		"施工ノート入力":   {"施工ノート入力"},
	}
	merged := ApplyMergePatterns(groups)

	if got := merged["電話対応"]; len(got) != 2 {
		t.Errorf("電話対応 = %v, want the plain and the クレーム variant", got)
	}
	if got := merged["会議"]; len(got) != 3 {
		t.Errorf("会議 = %v, want 3 meeting variants", got)
	}
	if got := merged["移動"]; len(got) != 1 {
		t.Errorf("移動 = %v, want 1", got)
	}
	if got := merged["施工ノート入力"]; len(got) != 1 {
		t.Errorf("施工ノート入力 = %v, want untouched", got)
	}
}

func TestLocalGroupTasks(t *testing.T) {
	names := []string{
		"施工ノート入力",
		"施工ノート入力（修正）",
		"施工ノート入力", // duplicate input collapses before grouping
		"TEL対応",
		"電話対応",
	}

	res := LocalGroupTasks(names, false)
	if res.OriginalCount != 4 {
		t.Errorf("OriginalCount = %d, want 4", res.OriginalCount)
	}
	if res.GroupedCount != 2 {
		t.Errorf("GroupedCount = %d, want 2", res.GroupedCount)
	}

	var noteMembers []string
	for _, g := range res.Groups {
		if g.Representative == "施工ノート入力" {
			noteMembers = g.Members
		}
	}
	want := []string{"施工ノート入力", "施工ノート入力（修正）"}
	if !reflect.DeepEqual(noteMembers, want) {
		t.Errorf("members = %v, want %v", noteMembers, want)
	}
}

func TestLocalGroupTasksMerge(t *testing.T) {
	names := []string{"MTG定例", "週次ミーティング", "打合せメモ"}
	res := LocalGroupTasks(names, true)
	if res.GroupedCount != 1 {
		t.Fatalf("GroupedCount = %d, want 1: %v", res.GroupedCount, res.Groups)
	}
	if res.Groups[0].Representative != "会議" {
		t.Fatalf("representative = %q, want 会議", res.Groups[0].Representative)
	}
	if len(res.Groups[0].Members) != 3 {
		t.Fatalf("members = %v, want 3", res.Groups[0].Members)
	}
}

func TestLocalGroupTasksEmpty(t *testing.T) {
	res := LocalGroupTasks(nil, true)
	if res.OriginalCount != 0 || res.GroupedCount != 0 || len(res.Groups) != 0 {
		t.Fatalf("unexpected result for empty input: %+v", res)
	}
}
