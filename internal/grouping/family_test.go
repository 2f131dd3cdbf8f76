package grouping

import (
	"testing"

	"worklens/internal/core"
)

func TestExtractTaskFamily(t *testing.T) {
	cases := []struct {
		name       string
		family     string
		normalized string
	}{
		// suffix tier wins first
		{"施工ノート入力", "入力系", "施工ノート入力"},
		{"電話対応", "対応系", "電話対応"},
		{"資料作成", "作成系", "資料作成"},
		{"在庫チェック", "チェック系", "在庫チェック"},
		// annotations are stripped before the suffix check
		{"施工ノート入力（修正）", "入力系", "施工ノート入力"},
		// meeting tier collapses the representative to MTG
		{"MTG定例", "MTG系", "MTG"},
		{"週次ミーティング", "MTG系", "MTG"},
		{"打ち合わせ", "MTG系", "MTG"},
		// other contains families keep their own names
		{"現場移動", "移動系", "現場移動"},
		{"新人研修", "研修系", "新人研修"},
		// suffix beats contains: 会議資料作成 ends in 作成
		{"会議資料作成", "作成系", "会議資料作成"},
		// unmatched
		{"雑務", "その他", "雑務"},
		{"", "その他", ""},
	}
	for i, tc := range cases {
		family, normalized := ExtractTaskFamily(tc.name)
		if family != tc.family || normalized != tc.normalized {
			t.Errorf("case %d (%q): got (%q, %q), want (%q, %q)",
				i, tc.name, family, normalized, tc.family, tc.normalized)
		}
	}
}

func TestGroupRanking(t *testing.T) {
	rows := []core.RankingRow{
		{WorkName: "施工ノート入力", Category: "コア業務", Hours: 10, Cost: 20000, Quantity: 5},
		{WorkName: "施工ノート入力（修正）", Hours: 2.06, Cost: 4000, Quantity: 1},
		{WorkName: "MTG定例", Category: "MTG", Hours: 3, Cost: 6000, Quantity: 2},
		{WorkName: "週次ミーティング", Hours: 1, Cost: 2000, Quantity: 1},
		{WorkName: "", Hours: 99},
	}
	groups := GroupRanking(rows)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}

	first := groups[0]
	if first.Family != "入力系" || first.NormalizedName != "施工ノート入力" {
		t.Fatalf("first group = %q/%q", first.Family, first.NormalizedName)
	}
	if first.TotalHours != 12.1 {
		t.Errorf("TotalHours = %v, want 12.1 (10 + 2.06 rounded to one decimal)", first.TotalHours)
	}
	if first.TotalCost != 24000 {
		t.Errorf("TotalCost = %d, want 24000", first.TotalCost)
	}
	if first.TotalQuantity != 6 {
		t.Errorf("TotalQuantity = %v, want 6", first.TotalQuantity)
	}
	if first.Category != "コア業務" {
		t.Errorf("Category = %q, want first tagged member's", first.Category)
	}
	if first.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", first.MemberCount)
	}
	// members stay hours-descending
	if first.Members[0].Hours < first.Members[1].Hours {
		t.Errorf("members not sorted by hours: %+v", first.Members)
	}

	second := groups[1]
	if second.Family != "MTG系" || second.NormalizedName != "MTG" {
		t.Fatalf("second group = %q/%q", second.Family, second.NormalizedName)
	}
	if second.MemberCount != 2 {
		t.Errorf("meeting MemberCount = %d, want 2", second.MemberCount)
	}
	if second.Category != "MTG" {
		t.Errorf("meeting Category = %q, want MTG", second.Category)
	}
}
