// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"worklens/internal/core"
	"worklens/internal/grouping"
	"worklens/internal/rules"
	"worklens/internal/storage"
)

// Default values used when the corresponding setting row is missing.
const (
	defaultHourlyRate   = 2000.0
	defaultRankingLimit = 10
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AnalyticsRepository is the read surface the analytics service needs from
// storage.
type AnalyticsRepository interface {
	WorkNameTotals(ctx context.Context, f core.Filter) ([]storage.WorkNameTotal, error)
	DailyTotals(ctx context.Context, f core.Filter) ([]storage.DailyTotal, error)
	StaffNames(ctx context.Context) ([]string, error)
	Category1Values(ctx context.Context) ([]string, error)
	DateRange(ctx context.Context) (string, string, error)
	CountRecords(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	SettingFloat(ctx context.Context, key string, fallback float64) (float64, error)
	SettingInt(ctx context.Context, key string, fallback int) (int, error)
}

// AnalyticsService computes the dashboard aggregates. Raw sums come from
// SQL grouped by (source sub-category, work name); classification happens
// here, on top of the rule snapshots, so a rule change reshapes every
// aggregate without touching stored rows.
type AnalyticsService struct {
	repo     AnalyticsRepository
	resolver *rules.Resolver
}

func NewAnalyticsService(repo AnalyticsRepository, resolver *rules.Resolver) *AnalyticsService {
	return &AnalyticsService{repo: repo, resolver: resolver}
}

// classifiedTotal is one work item after classification.
type classifiedTotal struct {
	storage.WorkNameTotal
	Category          string
	UnitType          core.UnitType
	SubCategory       string
	IsReductionTarget bool
}

// classifyTotals resolves every aggregate row on all axes. Sub-category
// rules are scoped to the resolved display category.
func (s *AnalyticsService) classifyTotals(ctx context.Context, totals []storage.WorkNameTotal) ([]classifiedTotal, error) {
	categoryIDs, err := s.categoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]classifiedTotal, 0, len(totals))
	for _, t := range totals {
		category, err := s.resolver.Category(ctx, t.Category2, t.WorkName)
		if err != nil {
			return nil, fmt.Errorf("classify %q: %w", t.WorkName, err)
		}
		unit, err := s.resolver.UnitType(ctx, t.WorkName)
		if err != nil {
			return nil, fmt.Errorf("resolve unit type for %q: %w", t.WorkName, err)
		}
		sub, err := s.resolver.SubCategory(ctx, t.WorkName, categoryIDs[category])
		if err != nil {
			return nil, fmt.Errorf("resolve sub category for %q: %w", t.WorkName, err)
		}
		reduction, err := s.resolver.IsReductionTarget(ctx, category, t.WorkName)
		if err != nil {
			return nil, fmt.Errorf("resolve reduction flag for %q: %w", t.WorkName, err)
		}
		out = append(out, classifiedTotal{
			WorkNameTotal:     t,
			Category:          category,
			UnitType:          unit,
			SubCategory:       sub,
			IsReductionTarget: reduction,
		})
	}
	return out, nil
}

func (s *AnalyticsService) categoryIDs(ctx context.Context) (map[string]int64, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	ids := make(map[string]int64, len(cats))
	for _, c := range cats {
		ids[c.Name] = c.ID
	}
	return ids, nil
}

// Summary computes the dashboard KPI block. Count-type work items never
// contribute to hour totals or to either side of the reduction ratio; their
// cost still counts.
func (s *AnalyticsService) Summary(ctx context.Context, f core.Filter) (core.Summary, error) {
	totals, err := s.repo.WorkNameTotals(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	classified, err := s.classifyTotals(ctx, totals)
	if err != nil {
		return core.Summary{}, err
	}
	rate, err := s.repo.SettingFloat(ctx, "default_hourly_rate", defaultHourlyRate)
	if err != nil {
		return core.Summary{}, err
	}

	var sum core.Summary
	var reductionHours float64
	for _, c := range classified {
		sum.TotalCost += c.Amount
		sum.TaskTypes++
		if c.UnitType == core.UnitCount {
			continue
		}
		sum.TotalHours += c.Quantity
		if c.IsReductionTarget {
			reductionHours += c.Quantity
		}
	}
	sum.TotalHours = round1(sum.TotalHours)
	sum.EstimatedCost = round1(sum.TotalHours * rate)
	if sum.TotalHours > 0 {
		sum.ReductionRatio = round1(reductionHours / sum.TotalHours * 100)
	}
	return sum, nil
}

// CategoryBreakdown returns hours per display category, ordered by the
// category sort order with unknown categories last.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, f core.Filter) ([]core.CategoryHours, error) {
	totals, err := s.repo.WorkNameTotals(ctx, f)
	if err != nil {
		return nil, err
	}
	classified, err := s.classifyTotals(ctx, totals)
	if err != nil {
		return nil, err
	}

	hours := make(map[string]float64)
	for _, c := range classified {
		if c.UnitType == core.UnitCount {
			continue
		}
		hours[c.Category] += c.Quantity
	}

	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.CategoryHours, 0, len(hours))
	for _, c := range cats {
		if h, ok := hours[c.Name]; ok {
			out = append(out, core.CategoryHours{Category: c.Name, Hours: round1(h)})
			delete(hours, c.Name)
		}
	}
	// Categories classified by rules but since deleted from the table.
	var rest []string
	for name := range hours {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, core.CategoryHours{Category: name, Hours: round1(hours[name])})
	}
	return out, nil
}

// DailyBreakdown returns a chart-ready per-category hour series over the
// dates in range. Count-type items are excluded.
func (s *AnalyticsService) DailyBreakdown(ctx context.Context, f core.Filter) (core.DailyBreakdown, error) {
	daily, err := s.repo.DailyTotals(ctx, f)
	if err != nil {
		return core.DailyBreakdown{}, err
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return core.DailyBreakdown{}, fmt.Errorf("list categories: %w", err)
	}
	colors := make(map[string]string, len(cats))
	for _, c := range cats {
		colors[c.Name] = c.Color
	}

	type cell struct {
		date     string
		category string
	}
	cells := make(map[cell]float64)
	var dates []string
	seenDate := make(map[string]bool)
	var categories []string
	seenCat := make(map[string]bool)

	for _, d := range daily {
		category, err := s.resolver.Category(ctx, d.Category2, d.WorkName)
		if err != nil {
			return core.DailyBreakdown{}, fmt.Errorf("classify %q: %w", d.WorkName, err)
		}
		unit, err := s.resolver.UnitType(ctx, d.WorkName)
		if err != nil {
			return core.DailyBreakdown{}, fmt.Errorf("resolve unit type for %q: %w", d.WorkName, err)
		}
		if unit == core.UnitCount {
			continue
		}
		if !seenDate[d.Date] {
			seenDate[d.Date] = true
			dates = append(dates, d.Date)
		}
		if !seenCat[category] {
			seenCat[category] = true
			categories = append(categories, category)
		}
		cells[cell{d.Date, category}] += d.Quantity
	}
	sort.Strings(dates)
	sort.Strings(categories)

	breakdown := core.DailyBreakdown{Labels: dates}
	for _, category := range categories {
		series := core.DailySeries{Label: category, Color: colors[category]}
		for _, date := range dates {
			series.Data = append(series.Data, round1(cells[cell{date, category}]))
		}
		breakdown.Datasets = append(breakdown.Datasets, series)
	}
	return breakdown, nil
}

// Ranking returns the top work items by hours, classified and enriched.
// A limit of 0 uses the ranking_limit setting; a negative limit disables
// truncation.
func (s *AnalyticsService) Ranking(ctx context.Context, f core.Filter, limit int) ([]core.RankingRow, error) {
	totals, err := s.repo.WorkNameTotals(ctx, f)
	if err != nil {
		return nil, err
	}
	classified, err := s.classifyTotals(ctx, totals)
	if err != nil {
		return nil, err
	}
	rate, err := s.repo.SettingFloat(ctx, "default_hourly_rate", defaultHourlyRate)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit, err = s.repo.SettingInt(ctx, "ranking_limit", defaultRankingLimit)
		if err != nil {
			return nil, err
		}
	}

	var totalHours float64
	for _, c := range classified {
		if c.UnitType != core.UnitCount {
			totalHours += c.Quantity
		}
	}

	rows := make([]core.RankingRow, 0, len(classified))
	for _, c := range classified {
		row := core.RankingRow{
			WorkName:          c.WorkName,
			Category:          c.Category,
			OriginalCategory:  c.Category2,
			Quantity:          round1(c.Quantity),
			Cost:              c.Amount,
			UnitType:          c.UnitType,
			UnitSuffix:        c.UnitType.Suffix(),
			SubCategory:       c.SubCategory,
			IsReductionTarget: c.IsReductionTarget,
		}
		if c.UnitType != core.UnitCount {
			row.Hours = round1(c.Quantity)
			row.EstimatedCost = round1(c.Quantity * rate)
			if totalHours > 0 {
				row.Ratio = round1(c.Quantity / totalHours * 100)
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Hours != rows[j].Hours {
			return rows[i].Hours > rows[j].Hours
		}
		return rows[i].Quantity > rows[j].Quantity
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// GroupedRanking returns the full ranking folded into coarse task families.
func (s *AnalyticsService) GroupedRanking(ctx context.Context, f core.Filter) ([]grouping.FamilyGroup, error) {
	rows, err := s.Ranking(ctx, f, -1)
	if err != nil {
		return nil, err
	}
	return grouping.GroupRanking(rows), nil
}

// FilterOptions is the metadata the dashboard filter controls need.
type FilterOptions struct {
	Staffs      []string `json:"staffs"`
	Categories1 []string `json:"categories1"`
	MinDate     string   `json:"min_date"`
	MaxDate     string   `json:"max_date"`
	RecordCount int64    `json:"record_count"`
}

func (s *AnalyticsService) FilterOptions(ctx context.Context) (FilterOptions, error) {
	staffs, err := s.repo.StaffNames(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	cats, err := s.repo.Category1Values(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	min, max, err := s.repo.DateRange(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	count, err := s.repo.CountRecords(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	return FilterOptions{
		Staffs:      staffs,
		Categories1: cats,
		MinDate:     min,
		MaxDate:     max,
		RecordCount: count,
	}, nil
}
