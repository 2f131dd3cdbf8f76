package rules

import (
	"context"
	"testing"

	"worklens/internal/core"
)

// recordingSeeder captures every seeded row for inspection.
type recordingSeeder struct {
	categories []core.Category
	keywords   []string
	unitRules  []core.UnitTypeRule
	subRules   []core.SubCategoryRule
	settings   map[string]string
}

func newRecordingSeeder() *recordingSeeder {
	return &recordingSeeder{settings: make(map[string]string)}
}

func (r *recordingSeeder) SeedCategory(ctx context.Context, c core.Category) error {
	r.categories = append(r.categories, c)
	return nil
}

func (r *recordingSeeder) SeedKeywordRule(ctx context.Context, categoryName string, k core.KeywordRule) error {
	r.keywords = append(r.keywords, k.Keyword)
	return nil
}

func (r *recordingSeeder) SeedUnitRule(ctx context.Context, u core.UnitTypeRule) error {
	r.unitRules = append(r.unitRules, u)
	return nil
}

func (r *recordingSeeder) SeedSubCategoryRule(ctx context.Context, parentCategoryName string, s core.SubCategoryRule) error {
	r.subRules = append(r.subRules, s)
	return nil
}

func (r *recordingSeeder) SeedSetting(ctx context.Context, key, value, valueType, description string) error {
	r.settings[key] = value
	return nil
}

func TestSeedDefaultsCoversAllAxes(t *testing.T) {
	store := NewStore(newTestRepo())
	seeder := newRecordingSeeder()

	if err := store.SeedDefaults(context.Background(), seeder); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if len(seeder.categories) == 0 || len(seeder.keywords) == 0 ||
		len(seeder.unitRules) == 0 || len(seeder.subRules) == 0 || len(seeder.settings) == 0 {
		t.Fatalf("seed left an axis empty: %d categories, %d keywords, %d unit rules, %d sub rules, %d settings",
			len(seeder.categories), len(seeder.keywords), len(seeder.unitRules), len(seeder.subRules), len(seeder.settings))
	}
}

func TestSeedDefaultCategoryMatchesFallback(t *testing.T) {
	store := NewStore(newTestRepo())
	seeder := newRecordingSeeder()

	if err := store.SeedDefaults(context.Background(), seeder); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	// The classification fallback, the seeded default_category setting, and
	// one seeded category must all agree on the same name.
	if got := seeder.settings[DefaultCategoryKey]; got != DefaultCategoryFallback {
		t.Errorf("default_category setting = %q, want %q", got, DefaultCategoryFallback)
	}
	found := false
	for _, c := range seeder.categories {
		if c.Name == DefaultCategoryFallback {
			found = true
		}
	}
	if !found {
		t.Errorf("no seeded category named %q", DefaultCategoryFallback)
	}
}

func TestSeedDefaultsSingleAxis(t *testing.T) {
	store := NewStore(newTestRepo())
	seeder := newRecordingSeeder()

	if err := store.SeedDefaults(context.Background(), seeder, core.AxisUnitType); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if len(seeder.unitRules) == 0 {
		t.Fatal("unit axis not seeded")
	}
	if len(seeder.categories) != 0 || len(seeder.keywords) != 0 || len(seeder.subRules) != 0 {
		t.Fatalf("other axes seeded: %d categories, %d keywords, %d sub rules",
			len(seeder.categories), len(seeder.keywords), len(seeder.subRules))
	}
}
