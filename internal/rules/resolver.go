package rules

import (
	"context"

	"worklens/internal/classify"
	"worklens/internal/core"
)

// Resolver runs the three classification axes plus the reduction check for a
// single work item. It only ever touches the store's in-memory snapshots;
// the sole I/O is a cache-miss rebuild inside the store.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve classifies one (category2, work name) pair on all axes.
func (r *Resolver) Resolve(ctx context.Context, category2, workName string) (core.Resolution, error) {
	category, err := r.Category(ctx, category2, workName)
	if err != nil {
		return core.Resolution{}, err
	}
	unit, err := r.UnitType(ctx, workName)
	if err != nil {
		return core.Resolution{}, err
	}
	sub, err := r.SubCategory(ctx, workName, 0)
	if err != nil {
		return core.Resolution{}, err
	}
	reduction, err := r.IsReductionTarget(ctx, category, workName)
	if err != nil {
		return core.Resolution{}, err
	}

	return core.Resolution{
		Category:          category,
		UnitType:          unit,
		SubCategory:       sub,
		IsReductionTarget: reduction,
	}, nil
}

// Category resolves the display category from the source sub-category and
// the work name; both are tried against every rule.
func (r *Resolver) Category(ctx context.Context, category2, workName string) (string, error) {
	ruleSet, err := r.store.CategoryRules(ctx)
	if err != nil {
		return "", err
	}
	fallback, err := r.store.DefaultCategory(ctx)
	if err != nil {
		return "", err
	}
	return classify.Classify(ruleSet, fallback, category2, workName), nil
}

// CategoryWithFallback is Category with a caller-supplied fallback label.
// Passing a sentinel the category table cannot contain lets callers detect
// work names no rule matches.
func (r *Resolver) CategoryWithFallback(ctx context.Context, fallback, category2, workName string) (string, error) {
	ruleSet, err := r.store.CategoryRules(ctx)
	if err != nil {
		return "", err
	}
	return classify.Classify(ruleSet, fallback, category2, workName), nil
}

// UnitType resolves whether the work item's quantity is hours or a count.
// Hours is the default.
func (r *Resolver) UnitType(ctx context.Context, workName string) (core.UnitType, error) {
	ruleSet, err := r.store.UnitRules(ctx)
	if err != nil {
		return "", err
	}
	return core.UnitType(classify.Classify(ruleSet, string(core.UnitHours), workName)), nil
}

// SubCategory resolves the finer-grained tag within a parent category.
// Returns the empty string when nothing matches; a parentID of 0 disables
// parent scoping.
func (r *Resolver) SubCategory(ctx context.Context, workName string, parentID int64) (string, error) {
	ruleSet, err := r.store.SubCategoryRules(ctx)
	if err != nil {
		return "", err
	}
	return classify.ClassifyScoped(ruleSet, parentID, "", workName), nil
}

// IsReductionTarget reports whether a work item counts toward reduction
// tracking: true when its display category is reduction-flagged OR its exact
// name is individually flagged. Logical OR, neither side overrides.
func (r *Resolver) IsReductionTarget(ctx context.Context, category, workName string) (bool, error) {
	cats, err := r.store.ReductionCategories(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := cats[category]; ok {
		return true, nil
	}
	if workName == "" {
		return false, nil
	}
	names, err := r.store.ReductionWorkNames(ctx)
	if err != nil {
		return false, err
	}
	_, ok := names[workName]
	return ok, nil
}
