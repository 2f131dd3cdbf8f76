package services

import (
	"context"
	"log/slog"
	"strings"

	"worklens/internal/core"
	applog "worklens/internal/log"
	"worklens/internal/rules"
	"worklens/internal/storage"
)

type (
	// AdminRepository is the write surface for rule administration.
	AdminRepository interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (int64, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error

		ListKeywordRules(ctx context.Context) ([]storage.KeywordRuleDetail, error)
		CreateKeywordRule(ctx context.Context, k core.KeywordRule) (int64, error)
		UpdateKeywordRule(ctx context.Context, k core.KeywordRule) error
		DeleteKeywordRule(ctx context.Context, id int64) error

		ListUnitRules(ctx context.Context) ([]core.UnitTypeRule, error)
		CreateUnitRule(ctx context.Context, u core.UnitTypeRule) (int64, error)
		UpdateUnitRule(ctx context.Context, u core.UnitTypeRule) error
		DeleteUnitRule(ctx context.Context, id int64) error

		ListSubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error)
		CreateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) (int64, error)
		UpdateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) error
		DeleteSubCategoryRule(ctx context.Context, id int64) error

		ListReductionTargets(ctx context.Context) ([]core.ReductionTarget, error)
		SetReductionTarget(ctx context.Context, workName string, flag bool) error
		DeleteReductionTarget(ctx context.Context, workName string) error

		ListSettings(ctx context.Context) ([]storage.Setting, error)
		SetSetting(ctx context.Context, s storage.Setting) error
	}

	// InvalidationPublisher broadcasts a rule-cache invalidation to other
	// processes. Publishing is best effort; a failed publish never fails
	// the mutation that triggered it.
	InvalidationPublisher interface {
		PublishInvalidation(ctx context.Context, axes ...core.RuleAxis) error
	}
)

// AdminService owns rule administration. Every mutation invalidates the
// in-process rule snapshots for the affected axis in the same call, then
// broadcasts the invalidation when a publisher is configured.
type AdminService struct {
	repo      AdminRepository
	store     *rules.Store
	resolver  *rules.Resolver
	publisher InvalidationPublisher // nil when no broker is configured
}

func NewAdminService(repo AdminRepository, store *rules.Store, resolver *rules.Resolver, publisher InvalidationPublisher) *AdminService {
	return &AdminService{repo: repo, store: store, resolver: resolver, publisher: publisher}
}

func (s *AdminService) invalidate(ctx context.Context, axes ...core.RuleAxis) {
	s.store.Invalidate(axes...)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInvalidation(ctx, axes...); err != nil {
		slog.WarnContext(ctx, "Failed to publish cache invalidation",
			applog.FieldComponent, applog.ComponentAdmin,
			applog.FieldAxis, axes,
			applog.FieldError, err.Error())
	}
}

func (s *AdminService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *AdminService) Category(ctx context.Context, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *AdminService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if c.ValueRank == "" {
		c.ValueRank = core.RankA
	}
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, core.AxisCategory)
	return id, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, c core.Category) error {
	if c.ValueRank == "" {
		c.ValueRank = core.RankA
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return err
	}
	// Renames and reduction-flag flips both reshape the category snapshot
	// and the reduction sets.
	s.invalidate(ctx, core.AxisCategory, rules.AxisReduction)
	return nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisCategory, rules.AxisReduction)
	return nil
}

func (s *AdminService) KeywordRules(ctx context.Context) ([]storage.KeywordRuleDetail, error) {
	return s.repo.ListKeywordRules(ctx)
}

func (s *AdminService) CreateKeywordRule(ctx context.Context, k core.KeywordRule) (int64, error) {
	if err := k.Validate(); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateKeywordRule(ctx, k)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, core.AxisCategory)
	return id, nil
}

func (s *AdminService) UpdateKeywordRule(ctx context.Context, k core.KeywordRule) error {
	if err := k.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateKeywordRule(ctx, k); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisCategory)
	return nil
}

func (s *AdminService) DeleteKeywordRule(ctx context.Context, id int64) error {
	if err := s.repo.DeleteKeywordRule(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisCategory)
	return nil
}

func (s *AdminService) UnitRules(ctx context.Context) ([]core.UnitTypeRule, error) {
	return s.repo.ListUnitRules(ctx)
}

func (s *AdminService) CreateUnitRule(ctx context.Context, u core.UnitTypeRule) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateUnitRule(ctx, u)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, core.AxisUnitType)
	return id, nil
}

func (s *AdminService) UpdateUnitRule(ctx context.Context, u core.UnitTypeRule) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateUnitRule(ctx, u); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisUnitType)
	return nil
}

func (s *AdminService) DeleteUnitRule(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUnitRule(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisUnitType)
	return nil
}

func (s *AdminService) SubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error) {
	return s.repo.ListSubCategoryRules(ctx)
}

func (s *AdminService) CreateSubCategoryRule(ctx context.Context, r core.SubCategoryRule) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateSubCategoryRule(ctx, r)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, core.AxisSubCategory)
	return id, nil
}

func (s *AdminService) UpdateSubCategoryRule(ctx context.Context, r core.SubCategoryRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateSubCategoryRule(ctx, r); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisSubCategory)
	return nil
}

func (s *AdminService) DeleteSubCategoryRule(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSubCategoryRule(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, core.AxisSubCategory)
	return nil
}

func (s *AdminService) ReductionTargets(ctx context.Context) ([]core.ReductionTarget, error) {
	return s.repo.ListReductionTargets(ctx)
}

func (s *AdminService) SetReductionTarget(ctx context.Context, workName string, flag bool) error {
	if strings.TrimSpace(workName) == "" {
		return core.ErrEmptyName
	}
	if err := s.repo.SetReductionTarget(ctx, workName, flag); err != nil {
		return err
	}
	s.invalidate(ctx, rules.AxisReduction)
	return nil
}

// SetReductionTargets applies the per-work-name flag to a batch of names,
// invalidating once at the end.
func (s *AdminService) SetReductionTargets(ctx context.Context, workNames []string, flag bool) error {
	for _, name := range workNames {
		if strings.TrimSpace(name) == "" {
			return core.ErrEmptyName
		}
		if err := s.repo.SetReductionTarget(ctx, name, flag); err != nil {
			return err
		}
	}
	s.invalidate(ctx, rules.AxisReduction)
	return nil
}

func (s *AdminService) DeleteReductionTarget(ctx context.Context, workName string) error {
	if err := s.repo.DeleteReductionTarget(ctx, workName); err != nil {
		return err
	}
	s.invalidate(ctx, rules.AxisReduction)
	return nil
}

func (s *AdminService) Settings(ctx context.Context) ([]storage.Setting, error) {
	return s.repo.ListSettings(ctx)
}

func (s *AdminService) SetSetting(ctx context.Context, setting storage.Setting) error {
	if err := s.repo.SetSetting(ctx, setting); err != nil {
		return err
	}
	s.invalidate(ctx, rules.AxisSettings)
	return nil
}

// TestClassification runs one work name through every axis without touching
// stored data. Used by the admin rule tester.
func (s *AdminService) TestClassification(ctx context.Context, category2, workName string) (core.Resolution, error) {
	return s.resolver.Resolve(ctx, category2, workName)
}
