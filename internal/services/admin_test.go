package services

import (
	"context"
	"errors"
	"testing"

	"worklens/internal/core"
	"worklens/internal/rules"
	"worklens/internal/storage"
)

// fakeAdminRepo records mutations; reads return canned data.
type fakeAdminRepo struct {
	createdCategories []core.Category
	createdKeywords   []core.KeywordRule
	reductionSets     map[string]bool
	settings          []storage.Setting
	failCreate        bool
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{reductionSets: make(map[string]bool)}
}

func (f *fakeAdminRepo) ListCategories(ctx context.Context) ([]core.Category, error) {
	return []core.Category{{ID: 1, Name: "コア業務"}}, nil
}
func (f *fakeAdminRepo) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return core.Category{ID: id, Name: "コア業務"}, nil
}
func (f *fakeAdminRepo) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	f.createdCategories = append(f.createdCategories, c)
	return int64(len(f.createdCategories)), nil
}
func (f *fakeAdminRepo) UpdateCategory(ctx context.Context, c core.Category) error { return nil }
func (f *fakeAdminRepo) DeleteCategory(ctx context.Context, id int64) error        { return nil }

func (f *fakeAdminRepo) ListKeywordRules(ctx context.Context) ([]storage.KeywordRuleDetail, error) {
	return nil, nil
}
func (f *fakeAdminRepo) CreateKeywordRule(ctx context.Context, k core.KeywordRule) (int64, error) {
	if f.failCreate {
		return 0, errors.New("insert failed")
	}
	f.createdKeywords = append(f.createdKeywords, k)
	return int64(len(f.createdKeywords)), nil
}
func (f *fakeAdminRepo) UpdateKeywordRule(ctx context.Context, k core.KeywordRule) error { return nil }
func (f *fakeAdminRepo) DeleteKeywordRule(ctx context.Context, id int64) error           { return nil }

func (f *fakeAdminRepo) ListUnitRules(ctx context.Context) ([]core.UnitTypeRule, error) {
	return nil, nil
}
func (f *fakeAdminRepo) CreateUnitRule(ctx context.Context, u core.UnitTypeRule) (int64, error) {
	return 1, nil
}
func (f *fakeAdminRepo) UpdateUnitRule(ctx context.Context, u core.UnitTypeRule) error { return nil }
func (f *fakeAdminRepo) DeleteUnitRule(ctx context.Context, id int64) error            { return nil }

func (f *fakeAdminRepo) ListSubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error) {
	return nil, nil
}
func (f *fakeAdminRepo) CreateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) (int64, error) {
	return 1, nil
}
func (f *fakeAdminRepo) UpdateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) error {
	return nil
}
func (f *fakeAdminRepo) DeleteSubCategoryRule(ctx context.Context, id int64) error { return nil }

func (f *fakeAdminRepo) ListReductionTargets(ctx context.Context) ([]core.ReductionTarget, error) {
	return nil, nil
}
func (f *fakeAdminRepo) SetReductionTarget(ctx context.Context, workName string, flag bool) error {
	f.reductionSets[workName] = flag
	return nil
}
func (f *fakeAdminRepo) DeleteReductionTarget(ctx context.Context, workName string) error {
	delete(f.reductionSets, workName)
	return nil
}

func (f *fakeAdminRepo) ListSettings(ctx context.Context) ([]storage.Setting, error) {
	return f.settings, nil
}
func (f *fakeAdminRepo) SetSetting(ctx context.Context, s storage.Setting) error {
	f.settings = append(f.settings, s)
	return nil
}

// fakePublisher records every broadcast.
type fakePublisher struct {
	published [][]core.RuleAxis
	err       error
}

func (f *fakePublisher) PublishInvalidation(ctx context.Context, axes ...core.RuleAxis) error {
	f.published = append(f.published, axes)
	return f.err
}

// countingRuleRepo wraps fakeRuleRepo so tests can see snapshot rebuilds.
type countingRuleRepo struct {
	fakeRuleRepo
	keywordLoads int
}

func (c *countingRuleRepo) ActiveKeywordRules(ctx context.Context) ([]rules.KeywordRuleRow, error) {
	c.keywordLoads++
	return c.fakeRuleRepo.ActiveKeywordRules(ctx)
}

func newTestAdmin() (*AdminService, *fakeAdminRepo, *fakePublisher, *countingRuleRepo) {
	repo := newFakeAdminRepo()
	pub := &fakePublisher{}
	ruleRepo := &countingRuleRepo{}
	store := rules.NewStore(ruleRepo)
	svc := NewAdminService(repo, store, rules.NewResolver(store), pub)
	return svc, repo, pub, ruleRepo
}

func TestCreateKeywordRuleInvalidates(t *testing.T) {
	svc, repo, pub, ruleRepo := newTestAdmin()
	ctx := context.Background()

	// Prime the snapshot so the invalidation is observable.
	if _, err := svc.TestClassification(ctx, "", "施工管理"); err != nil {
		t.Fatalf("TestClassification: %v", err)
	}

	id, err := svc.CreateKeywordRule(ctx, core.KeywordRule{
		Keyword: "新規", CategoryID: 1, MatchType: core.MatchContains, Priority: 10, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateKeywordRule: %v", err)
	}
	if id != 1 || len(repo.createdKeywords) != 1 {
		t.Fatalf("rule not persisted: id=%d created=%d", id, len(repo.createdKeywords))
	}

	if _, err := svc.TestClassification(ctx, "", "施工管理"); err != nil {
		t.Fatalf("TestClassification: %v", err)
	}
	if ruleRepo.keywordLoads != 2 {
		t.Errorf("keyword loads = %d, want reload after mutation", ruleRepo.keywordLoads)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published = %v, want one broadcast", pub.published)
	}
	if len(pub.published[0]) != 1 || pub.published[0][0] != core.AxisCategory {
		t.Errorf("published axes = %v, want category", pub.published[0])
	}
}

func TestCreateCategoryDefaultsValueRank(t *testing.T) {
	svc, repo, _, _ := newTestAdmin()
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{Name: "新分類"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, core.Category{Name: "重要分類", ValueRank: core.RankS}); err != nil {
		t.Fatalf("CreateCategory with rank: %v", err)
	}

	if len(repo.createdCategories) != 2 {
		t.Fatalf("created %d categories, want 2", len(repo.createdCategories))
	}
	if got := repo.createdCategories[0].ValueRank; got != core.RankA {
		t.Errorf("missing rank stored as %q, want %q", got, core.RankA)
	}
	if got := repo.createdCategories[1].ValueRank; got != core.RankS {
		t.Errorf("explicit rank stored as %q, want %q", got, core.RankS)
	}
}

func TestUpdateCategoryInvalidatesReduction(t *testing.T) {
	svc, _, pub, _ := newTestAdmin()

	err := svc.UpdateCategory(context.Background(), core.Category{ID: 1, Name: "コア業務"})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published = %v", pub.published)
	}
	got := pub.published[0]
	if len(got) != 2 || got[0] != core.AxisCategory || got[1] != rules.AxisReduction {
		t.Errorf("published axes = %v, want category and reduction", got)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, repo, pub, _ := newTestAdmin()
	pub.err = errors.New("broker down")

	if err := svc.SetReductionTarget(context.Background(), "日報入力", true); err != nil {
		t.Fatalf("SetReductionTarget: %v", err)
	}
	if !repo.reductionSets["日報入力"] {
		t.Fatalf("flag not persisted")
	}
}

func TestSetReductionTargetsBatch(t *testing.T) {
	svc, repo, pub, _ := newTestAdmin()

	names := []string{"日報入力", "朝礼", "清掃"}
	if err := svc.SetReductionTargets(context.Background(), names, true); err != nil {
		t.Fatalf("SetReductionTargets: %v", err)
	}
	for _, n := range names {
		if !repo.reductionSets[n] {
			t.Errorf("%q not flagged", n)
		}
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d times, want a single batched invalidation", len(pub.published))
	}
}

func TestNilPublisher(t *testing.T) {
	repo := newFakeAdminRepo()
	store := rules.NewStore(&countingRuleRepo{})
	svc := NewAdminService(repo, store, rules.NewResolver(store), nil)

	if _, err := svc.CreateCategory(context.Background(), core.Category{Name: "新分類"}); err != nil {
		t.Fatalf("CreateCategory with nil publisher: %v", err)
	}
}

func TestApplySuggestions(t *testing.T) {
	svc, repo, pub, _ := newTestAdmin()

	choices := []SuggestionChoice{
		{Keyword: "謎の作業", CategoryID: 1, Priority: 10},
		{Keyword: "別件メモ", CategoryID: 1, Priority: 5},
	}
	created, err := svc.ApplySuggestions(context.Background(), choices)
	if err != nil {
		t.Fatalf("ApplySuggestions: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	for _, k := range repo.createdKeywords {
		if k.MatchType != core.MatchContains || !k.IsActive {
			t.Errorf("rule = %+v, want active contains rule", k)
		}
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d times, want once for the batch", len(pub.published))
	}
}

func TestApplySuggestionsEmpty(t *testing.T) {
	svc, _, pub, _ := newTestAdmin()

	created, err := svc.ApplySuggestions(context.Background(), nil)
	if err != nil {
		t.Fatalf("ApplySuggestions: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d", created)
	}
	if len(pub.published) != 0 {
		t.Errorf("published on empty batch: %v", pub.published)
	}
}

func TestTestClassification(t *testing.T) {
	svc, _, _, _ := newTestAdmin()

	res, err := svc.TestClassification(context.Background(), "", "施工ノート入力")
	if err != nil {
		t.Fatalf("TestClassification: %v", err)
	}
	if res.Category != "コア業務" || res.UnitType != core.UnitCount {
		t.Fatalf("resolution = %+v", res)
	}
}
