package rules

import (
	"context"
	"fmt"

	"worklens/internal/core"
)

// Seed data is fully typed: every field of every default row is written out
// rather than assembled from loose key/value maps, so a missing or renamed
// field fails at compile time.

type (
	seedCategory struct {
		Name              string
		Color             string
		BadgeBgColor      string
		BadgeTextColor    string
		IsReductionTarget bool
		ValueRank         core.ValueRank
		SortOrder         int
	}

	seedKeyword struct {
		Keyword   string
		Category  string
		MatchType core.MatchType
		Priority  int
	}

	seedUnitRule struct {
		Keyword   string
		UnitType  core.UnitType
		MatchType core.MatchType
		Priority  int
	}

	seedSubCategoryRule struct {
		SubCategory    string
		Keyword        string
		MatchType      core.MatchType
		Priority       int
		ParentCategory string
	}

	seedSetting struct {
		Key         string
		Value       string
		ValueType   string
		Description string
	}

	// Seeder is the idempotent insert surface the storage layer provides:
	// each call inserts only when no row with the same natural key exists,
	// and never overwrites.
	Seeder interface {
		SeedCategory(ctx context.Context, c core.Category) error
		SeedKeywordRule(ctx context.Context, categoryName string, r core.KeywordRule) error
		SeedUnitRule(ctx context.Context, r core.UnitTypeRule) error
		SeedSubCategoryRule(ctx context.Context, parentCategoryName string, r core.SubCategoryRule) error
		SeedSetting(ctx context.Context, key, value, valueType, description string) error
	}
)

var defaultCategories = []seedCategory{
	{Name: DefaultCategoryFallback, Color: "#3B82F6", BadgeBgColor: "#dbeafe", BadgeTextColor: "#1d4ed8", IsReductionTarget: false, ValueRank: core.RankS, SortOrder: 1},
	{Name: "MTG", Color: "#8B5CF6", BadgeBgColor: "#ede9fe", BadgeTextColor: "#6d28d9", IsReductionTarget: false, ValueRank: core.RankA, SortOrder: 2},
	{Name: "事務", Color: "#6B7280", BadgeBgColor: "#f3f4f6", BadgeTextColor: "#374151", IsReductionTarget: false, ValueRank: core.RankB, SortOrder: 3},
	{Name: "その他", Color: "#EF4444", BadgeBgColor: "#fee2e2", BadgeTextColor: "#dc2626", IsReductionTarget: true, ValueRank: core.RankC, SortOrder: 4},
	{Name: "移動", Color: "#F97316", BadgeBgColor: "#ffedd5", BadgeTextColor: "#ea580c", IsReductionTarget: true, ValueRank: core.RankC, SortOrder: 5},
}

var defaultKeywords = []seedKeyword{
	// Unambiguous meeting terms first.
	{Keyword: "mtg", Category: "MTG", MatchType: core.MatchContains, Priority: 30},
	{Keyword: "面談", Category: "MTG", MatchType: core.MatchContains, Priority: 30},
	{Keyword: "打ち合わせ", Category: "MTG", MatchType: core.MatchContains, Priority: 30},
	{Keyword: "会議", Category: "MTG", MatchType: core.MatchContains, Priority: 30},
	{Keyword: "ミーティング", Category: "MTG", MatchType: core.MatchContains, Priority: 30},
	{Keyword: "移動", Category: "移動", MatchType: core.MatchContains, Priority: 25},
	{Keyword: "出張", Category: "移動", MatchType: core.MatchContains, Priority: 25},
	{Keyword: "営業", Category: "コア業務", MatchType: core.MatchContains, Priority: 20},
	{Keyword: "電話", Category: "コア業務", MatchType: core.MatchContains, Priority: 20},
	{Keyword: "tel", Category: "コア業務", MatchType: core.MatchContains, Priority: 20},
	{Keyword: "対応", Category: "コア業務", MatchType: core.MatchContains, Priority: 15},
	// Generic clerical terms sit lower so the specific ones win.
	{Keyword: "事務", Category: "事務", MatchType: core.MatchContains, Priority: 15},
	{Keyword: "チェック", Category: "事務", MatchType: core.MatchContains, Priority: 15},
	{Keyword: "確認", Category: "事務", MatchType: core.MatchContains, Priority: 15},
	{Keyword: "集計", Category: "事務", MatchType: core.MatchContains, Priority: 15},
	{Keyword: "入力", Category: "事務", MatchType: core.MatchContains, Priority: 15},
	{Keyword: "その他", Category: "その他", MatchType: core.MatchContains, Priority: 5},
	{Keyword: "雑務", Category: "その他", MatchType: core.MatchContains, Priority: 5},
	{Keyword: "待機", Category: "その他", MatchType: core.MatchContains, Priority: 5},
	{Keyword: "不明", Category: "その他", MatchType: core.MatchContains, Priority: 5},
}

var defaultUnitRules = []seedUnitRule{
	{Keyword: "MTG", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "会議", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "ミーティング", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "打ち合わせ", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "打合せ", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "面談", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "研修", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "移動", UnitType: core.UnitHours, MatchType: core.MatchContains, Priority: 20},
	{Keyword: "対応", UnitType: core.UnitHours, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "入力", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "作成", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "チェック", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "確認", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "処理", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "登録", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "発注", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
	{Keyword: "手配", UnitType: core.UnitCount, MatchType: core.MatchSuffix, Priority: 15},
}

var defaultSubCategoryRules = []seedSubCategoryRule{
	{SubCategory: "制作系", Keyword: "ノート作成", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "制作系", Keyword: "書類作成", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "制作系", Keyword: "資料作成", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "制作系", Keyword: "作成", MatchType: core.MatchSuffix, Priority: 10, ParentCategory: "コア業務"},
	{SubCategory: "専門作業系", Keyword: "Wチェック", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "専門作業系", Keyword: "レセチェック", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "専門作業系", Keyword: "チェック", MatchType: core.MatchSuffix, Priority: 10, ParentCategory: "コア業務"},
	{SubCategory: "顧客対応系", Keyword: "電話対応", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "顧客対応系", Keyword: "メール対応", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "顧客対応系", Keyword: "TEL対応", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "顧客対応系", Keyword: "対応", MatchType: core.MatchSuffix, Priority: 10, ParentCategory: "コア業務"},
	{SubCategory: "技術系", Keyword: "施工", MatchType: core.MatchContains, Priority: 15, ParentCategory: "コア業務"},
	{SubCategory: "技術系", Keyword: "技工", MatchType: core.MatchContains, Priority: 15, ParentCategory: "コア業務"},
	{SubCategory: "入力系", Keyword: "ノート入力", MatchType: core.MatchContains, Priority: 20, ParentCategory: "コア業務"},
	{SubCategory: "入力系", Keyword: "入力", MatchType: core.MatchSuffix, Priority: 10, ParentCategory: "コア業務"},
}

var defaultSettings = []seedSetting{
	{Key: "default_hourly_rate", Value: "2000", ValueType: "int", Description: "時給の既定値（円）"},
	{Key: "ranking_limit", Value: "10", ValueType: "int", Description: "ランキング表示件数"},
	{Key: DefaultCategoryKey, Value: DefaultCategoryFallback, ValueType: "string", Description: "未分類時の既定カテゴリ"},
}

// SeedDefaults inserts the default categories, rules and settings for the
// given axes (all axes when none given), then invalidates the affected
// caches. Safe to run on every startup.
func (s *Store) SeedDefaults(ctx context.Context, seeder Seeder, axes ...core.RuleAxis) error {
	all := len(axes) == 0
	want := make(map[core.RuleAxis]bool, len(axes))
	for _, a := range axes {
		want[a] = true
	}

	if all || want[core.AxisCategory] {
		for _, c := range defaultCategories {
			cat := core.Category{
				Name:              c.Name,
				Color:             c.Color,
				BadgeBgColor:      c.BadgeBgColor,
				BadgeTextColor:    c.BadgeTextColor,
				IsReductionTarget: c.IsReductionTarget,
				ValueRank:         c.ValueRank,
				SortOrder:         c.SortOrder,
			}
			if err := seeder.SeedCategory(ctx, cat); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
		for _, k := range defaultKeywords {
			rule := core.KeywordRule{
				Keyword:   k.Keyword,
				MatchType: k.MatchType,
				Priority:  k.Priority,
				IsActive:  true,
			}
			if err := seeder.SeedKeywordRule(ctx, k.Category, rule); err != nil {
				return fmt.Errorf("seed keyword %q: %w", k.Keyword, err)
			}
		}
	}

	if all || want[core.AxisUnitType] {
		for _, u := range defaultUnitRules {
			rule := core.UnitTypeRule{
				Keyword:   u.Keyword,
				UnitType:  u.UnitType,
				MatchType: u.MatchType,
				Priority:  u.Priority,
				IsActive:  true,
			}
			if err := seeder.SeedUnitRule(ctx, rule); err != nil {
				return fmt.Errorf("seed unit rule %q: %w", u.Keyword, err)
			}
		}
	}

	if all || want[core.AxisSubCategory] {
		for _, r := range defaultSubCategoryRules {
			rule := core.SubCategoryRule{
				SubCategoryName: r.SubCategory,
				Keyword:         r.Keyword,
				MatchType:       r.MatchType,
				Priority:        r.Priority,
				IsActive:        true,
			}
			if err := seeder.SeedSubCategoryRule(ctx, r.ParentCategory, rule); err != nil {
				return fmt.Errorf("seed sub category rule %q/%q: %w", r.SubCategory, r.Keyword, err)
			}
		}
	}

	if all || want[AxisSettings] {
		for _, st := range defaultSettings {
			if err := seeder.SeedSetting(ctx, st.Key, st.Value, st.ValueType, st.Description); err != nil {
				return fmt.Errorf("seed setting %q: %w", st.Key, err)
			}
		}
	}

	if all {
		s.Invalidate()
	} else {
		s.Invalidate(axes...)
	}
	return nil
}
