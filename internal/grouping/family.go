package grouping

import (
	"math"
	"sort"
	"strings"

	"worklens/internal/classify"
	"worklens/internal/core"
)

// FamilyGroup is one coarse "task family" bucket of already-aggregated
// ranking rows.
type FamilyGroup struct {
	Family         string            `json:"group_name"`
	NormalizedName string            `json:"normalized_name"`
	TotalHours     float64           `json:"total_hours"`
	TotalCost      int64             `json:"total_cost"`
	TotalQuantity  float64           `json:"total_quantity"`
	Category       string            `json:"category"`
	MemberCount    int               `json:"member_count"`
	Members        []core.RankingRow `json:"members"`
}

const familyOther = "その他"
const meetingFamily = "MTG系"

// suffixFamilies is the first tier: a work name ending in the suffix belongs
// to the family. Checked in order, before the contains tier.
var suffixFamilies = []struct{ suffix, family string }{
	{"入力", "入力系"},
	{"対応", "対応系"},
	{"作成", "作成系"},
	{"確認", "確認系"},
	{"管理", "管理系"},
	{"チェック", "チェック系"},
	{"処理", "処理系"},
	{"登録", "登録系"},
	{"発注", "発注系"},
	{"手配", "手配系"},
}

// containsFamilies is the second tier. The meeting entries come from the
// shared synonym catalog used by the merge patterns.
var containsFamilies = buildContainsFamilies()

func buildContainsFamilies() []struct{ keyword, family string } {
	out := make([]struct{ keyword, family string }, 0, len(meetingSynonyms)+6)
	for _, syn := range meetingSynonyms {
		out = append(out, struct{ keyword, family string }{syn, meetingFamily})
	}
	out = append(out,
		struct{ keyword, family string }{"面談", "面談系"},
		struct{ keyword, family string }{"移動", "移動系"},
		struct{ keyword, family string }{"キッズ", "キッズ系"},
		struct{ keyword, family string }{"研修", "研修系"},
		struct{ keyword, family string }{"説明会", "説明会系"},
	)
	return out
}

// ExtractTaskFamily assigns a coarse family label to a work name and returns
// the representative name alongside. Meeting-family names are always
// represented as "MTG" regardless of the original phrase; unmatched names
// fall into the その他 family under their annotation-stripped form.
func ExtractTaskFamily(workName string) (family, normalized string) {
	if workName == "" {
		return familyOther, ""
	}

	normalized = classify.StripAnnotations(workName)

	for _, sf := range suffixFamilies {
		if strings.HasSuffix(normalized, sf.suffix) {
			return sf.family, normalized
		}
	}
	for _, cf := range containsFamilies {
		if strings.Contains(normalized, cf.keyword) || strings.Contains(workName, cf.keyword) {
			if cf.family == meetingFamily {
				return cf.family, "MTG"
			}
			return cf.family, normalized
		}
	}
	return familyOther, normalized
}

// GroupRanking folds ranking rows into family groups keyed by
// (family, normalized name). Hours, cost and quantity are summed; members
// keep descending-hours order; the group's category tag comes from the first
// member carrying one. Output is sorted by total hours descending. Rows with
// empty work names are skipped.
func GroupRanking(rows []core.RankingRow) []FamilyGroup {
	type key struct{ family, normalized string }

	buckets := make(map[key]*FamilyGroup)
	order := make([]key, 0, len(rows))

	for _, row := range rows {
		if row.WorkName == "" {
			continue
		}
		family, normalized := ExtractTaskFamily(row.WorkName)
		k := key{family, normalized}

		g, ok := buckets[k]
		if !ok {
			g = &FamilyGroup{Family: family, NormalizedName: normalized}
			buckets[k] = g
			order = append(order, k)
		}
		g.Members = append(g.Members, row)
		g.TotalHours += row.Hours
		g.TotalCost += row.Cost
		g.TotalQuantity += row.Quantity
		if g.Category == "" && row.Category != "" {
			g.Category = row.Category
		}
	}

	result := make([]FamilyGroup, 0, len(buckets))
	for _, k := range order {
		g := buckets[k]
		g.TotalHours = round1(g.TotalHours)
		g.MemberCount = len(g.Members)
		sort.SliceStable(g.Members, func(i, j int) bool {
			return g.Members[i].Hours > g.Members[j].Hours
		})
		result = append(result, *g)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalHours > result[j].TotalHours
	})
	return result
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
