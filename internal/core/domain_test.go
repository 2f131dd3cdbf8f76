package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidMatchType(t *testing.T) {
	cases := []struct {
		axis RuleAxis
		mt   MatchType
		ok   bool
	}{
		{AxisCategory, MatchContains, true},
		{AxisCategory, MatchExact, true},
		{AxisCategory, MatchStartsWith, true},
		{AxisCategory, MatchSuffix, false},
		{AxisUnitType, MatchSuffix, true},
		{AxisUnitType, MatchStartsWith, false},
		{AxisSubCategory, MatchSuffix, true},
		{AxisSubCategory, MatchStartsWith, false},
		{AxisCategory, MatchType("regex"), false},
	}
	for i, tc := range cases {
		if got := ValidMatchType(tc.axis, tc.mt); got != tc.ok {
			t.Errorf("case %d: ValidMatchType(%s, %s) = %v, want %v", i, tc.axis, tc.mt, got, tc.ok)
		}
	}
}

func TestUnitTypeSuffix(t *testing.T) {
	if got := UnitHours.Suffix(); got != "h" {
		t.Errorf("hours suffix = %q, want h", got)
	}
	if got := UnitCount.Suffix(); got != "件" {
		t.Errorf("count suffix = %q, want 件", got)
	}
}

func TestUnitTypeValidate(t *testing.T) {
	if err := UnitHours.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := UnitType("minutes").Validate(); !errors.Is(err, ErrInvalidUnitType) {
		t.Fatalf("expected ErrInvalidUnitType, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "コア業務", ValueRank: RankS}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "無評価"}).Validate(); err != nil {
		t.Fatalf("empty rank should be allowed, got %v", err)
	}

	cases := []struct {
		name string
		c    Category
		want error
	}{
		{"empty name", Category{Name: "  "}, ErrEmptyName},
		{"long name", Category{Name: strings.Repeat("x", 51)}, nil},
		{"bad rank", Category{Name: "ok", ValueRank: "Z"}, ErrInvalidValueRank},
	}
	for _, tc := range cases {
		err := tc.c.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestKeywordRuleValidate(t *testing.T) {
	good := KeywordRule{Keyword: "施工", CategoryID: 1, MatchType: MatchContains}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		r    KeywordRule
		want error
	}{
		{"empty keyword", KeywordRule{CategoryID: 1, MatchType: MatchContains}, ErrEmptyKeyword},
		{"suffix not allowed", KeywordRule{Keyword: "k", CategoryID: 1, MatchType: MatchSuffix}, ErrInvalidMatchType},
		{"missing category", KeywordRule{Keyword: "k", MatchType: MatchExact}, nil},
	}
	for _, tc := range cases {
		err := tc.r.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestUnitTypeRuleValidate(t *testing.T) {
	good := UnitTypeRule{Keyword: "入力", UnitType: UnitCount, MatchType: MatchSuffix}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := UnitTypeRule{Keyword: "入力", UnitType: UnitCount, MatchType: MatchStartsWith}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMatchType) {
		t.Fatalf("expected ErrInvalidMatchType, got %v", err)
	}
}

func TestSubCategoryRuleValidate(t *testing.T) {
	good := SubCategoryRule{SubCategoryName: "制作系", Keyword: "制作", MatchType: MatchContains}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (SubCategoryRule{Keyword: "制作", MatchType: MatchContains}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("expected ErrEmptyName for missing sub-category name")
	}
}

func TestWorkRecordValidate(t *testing.T) {
	good := WorkRecord{WorkDate: NewDate(2025, 7, 1), WorkName: "施工ノート入力"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (WorkRecord{WorkName: "x"}).Validate(); err == nil {
		t.Fatal("expected error for zero date")
	}
	long := WorkRecord{WorkDate: NewDate(2025, 7, 1), WorkName: strings.Repeat("あ", 501)}
	if err := long.Validate(); err == nil {
		t.Fatal("expected error for overlong work name")
	}
}

func TestDateString(t *testing.T) {
	d := NewDate(2025, 7, 3)
	if got := d.String(); got != "2025-07-03" {
		t.Errorf("String() = %q, want 2025-07-03", got)
	}
}
