package rules

import (
	"context"
	"testing"

	"worklens/internal/core"
)

func newTestResolver() (*Resolver, *fakeRepo) {
	repo := newTestRepo()
	return NewResolver(NewStore(repo)), repo
}

func TestResolverCategory(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	cases := []struct {
		category2 string
		workName  string
		want      string
	}{
		// rule hit on the work name
		{"", "施工ノート入力", "コア業務"},
		// rule hit on the source sub-category
		{"MTG定例", "議事録", "MTG"},
		// keyword matching is case-insensitive
		{"", "mtg準備", "MTG"},
		// nothing matches, default category setting applies
		{"", "謎の作業", "コア業務"},
		{"", "", "コア業務"},
	}
	for i, tc := range cases {
		got, err := r.Category(ctx, tc.category2, tc.workName)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got != tc.want {
			t.Errorf("case %d (%q, %q): got %q, want %q", i, tc.category2, tc.workName, got, tc.want)
		}
	}
}

func TestResolverCategoryWithFallback(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	got, err := r.CategoryWithFallback(ctx, "\x00sentinel", "", "謎の作業")
	if err != nil {
		t.Fatalf("CategoryWithFallback: %v", err)
	}
	if got != "\x00sentinel" {
		t.Fatalf("got %q, want the sentinel on a miss", got)
	}

	got, err = r.CategoryWithFallback(ctx, "\x00sentinel", "", "施工ノート")
	if err != nil {
		t.Fatalf("CategoryWithFallback: %v", err)
	}
	if got != "コア業務" {
		t.Fatalf("got %q, want コア業務 on a hit", got)
	}
}

func TestResolverUnitType(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	got, err := r.UnitType(ctx, "施工ノート入力")
	if err != nil {
		t.Fatalf("UnitType: %v", err)
	}
	if got != core.UnitCount {
		t.Errorf("got %q, want count for 入力 suffix", got)
	}

	got, err = r.UnitType(ctx, "電話対応")
	if err != nil {
		t.Fatalf("UnitType: %v", err)
	}
	if got != core.UnitHours {
		t.Errorf("got %q, want hours as the default", got)
	}
}

func TestResolverSubCategory(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	got, err := r.SubCategory(ctx, "バナー制作", 0)
	if err != nil {
		t.Fatalf("SubCategory: %v", err)
	}
	if got != "制作系" {
		t.Errorf("got %q, want 制作系", got)
	}

	got, err = r.SubCategory(ctx, "電話対応", 0)
	if err != nil {
		t.Fatalf("SubCategory: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty on no match", got)
	}
}

func TestResolverIsReductionTarget(t *testing.T) {
	r, _ := newTestResolver()
	ctx := context.Background()

	cases := []struct {
		category string
		workName string
		want     bool
	}{
		// category flag alone
		{"その他", "何でも", true},
		{"移動", "", true},
		// exact work name flag alone
		{"コア業務", "日報入力", true},
		// both clear
		{"コア業務", "バナー制作", false},
		{"コア業務", "", false},
	}
	for i, tc := range cases {
		got, err := r.IsReductionTarget(ctx, tc.category, tc.workName)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got != tc.want {
			t.Errorf("case %d (%q, %q): got %v, want %v", i, tc.category, tc.workName, got, tc.want)
		}
	}
}

func TestResolverResolve(t *testing.T) {
	r, _ := newTestResolver()

	res, err := r.Resolve(context.Background(), "", "施工ノート入力")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Category != "コア業務" {
		t.Errorf("Category = %q", res.Category)
	}
	if res.UnitType != core.UnitCount {
		t.Errorf("UnitType = %q, want count", res.UnitType)
	}
	if res.IsReductionTarget {
		t.Errorf("IsReductionTarget = true, want false")
	}
}
