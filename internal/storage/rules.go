package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"worklens/internal/core"
	"worklens/internal/rules"
)

// Rule-table CRUD plus the read surface the rules.Store caches over. Every
// mutation here is expected to be followed by a cache invalidation in the
// service layer.

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, badge_bg_color, badge_text_color, is_reduction_target, value_rank, sort_order
		FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var rank string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.BadgeBgColor, &c.BadgeTextColor, &c.IsReductionTarget, &rank, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ValueRank = core.ValueRank(rank)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var rank string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, color, badge_bg_color, badge_text_color, is_reduction_target, value_rank, sort_order
		FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color, &c.BadgeBgColor, &c.BadgeTextColor, &c.IsReductionTarget, &rank, &c.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.ValueRank = core.ValueRank(rank)
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (name, color, badge_bg_color, badge_text_color, is_reduction_target, value_rank, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Color, c.BadgeBgColor, c.BadgeTextColor, c.IsReductionTarget, string(c.ValueRank), c.SortOrder)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, badge_bg_color = ?, badge_text_color = ?,
			is_reduction_target = ?, value_rank = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.Color, c.BadgeBgColor, c.BadgeTextColor, c.IsReductionTarget, string(c.ValueRank), c.SortOrder, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return errIfNoRows(res)
}

// DeleteCategory refuses to delete a category that still has keyword rules
// attached, active or not.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category_keywords WHERE category_id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("count keyword rules: %w", err)
	}
	if n > 0 {
		return core.ErrCategoryInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return errIfNoRows(res)
}

// KeywordRuleDetail is a keyword rule joined with its category name for
// admin listings.
type KeywordRuleDetail struct {
	core.KeywordRule
	CategoryName string
}

func (r *SQLiteRepository) ListKeywordRules(ctx context.Context) ([]KeywordRuleDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT k.id, k.category_id, c.name, k.keyword, k.match_type, k.priority, k.is_active
		FROM category_keywords k JOIN categories c ON c.id = k.category_id
		ORDER BY k.priority DESC, k.id`)
	if err != nil {
		return nil, fmt.Errorf("list keyword rules: %w", err)
	}
	defer rows.Close()

	var out []KeywordRuleDetail
	for rows.Next() {
		var d KeywordRuleDetail
		var mt string
		if err := rows.Scan(&d.ID, &d.CategoryID, &d.CategoryName, &d.Keyword, &mt, &d.Priority, &d.IsActive); err != nil {
			return nil, fmt.Errorf("scan keyword rule: %w", err)
		}
		d.MatchType = core.MatchType(mt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateKeywordRule(ctx context.Context, k core.KeywordRule) (int64, error) {
	if err := k.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO category_keywords (category_id, keyword, match_type, priority, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		k.CategoryID, k.Keyword, string(k.MatchType), k.Priority, k.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create keyword rule: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateKeywordRule(ctx context.Context, k core.KeywordRule) error {
	if err := k.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE category_keywords SET category_id = ?, keyword = ?, match_type = ?, priority = ?, is_active = ?
		WHERE id = ?`,
		k.CategoryID, k.Keyword, string(k.MatchType), k.Priority, k.IsActive, k.ID)
	if err != nil {
		return fmt.Errorf("update keyword rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) DeleteKeywordRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_keywords WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete keyword rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) ListUnitRules(ctx context.Context) ([]core.UnitTypeRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword, unit_type, match_type, priority, is_active
		FROM unit_type_rules ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list unit rules: %w", err)
	}
	defer rows.Close()
	return scanUnitRules(rows)
}

func (r *SQLiteRepository) CreateUnitRule(ctx context.Context, u core.UnitTypeRule) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO unit_type_rules (keyword, unit_type, match_type, priority, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		u.Keyword, string(u.UnitType), string(u.MatchType), u.Priority, u.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create unit rule: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateUnitRule(ctx context.Context, u core.UnitTypeRule) error {
	if err := u.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE unit_type_rules SET keyword = ?, unit_type = ?, match_type = ?, priority = ?, is_active = ?
		WHERE id = ?`,
		u.Keyword, string(u.UnitType), string(u.MatchType), u.Priority, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("update unit rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) DeleteUnitRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unit_type_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete unit rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) ListSubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_category_id, sub_category_name, keyword, match_type, priority, is_active
		FROM sub_category_rules ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sub category rules: %w", err)
	}
	defer rows.Close()
	return scanSubCategoryRules(rows)
}

func (r *SQLiteRepository) CreateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sub_category_rules (parent_category_id, sub_category_name, keyword, match_type, priority, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(s.ParentCategoryID), s.SubCategoryName, s.Keyword, string(s.MatchType), s.Priority, s.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create sub category rule: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateSubCategoryRule(ctx context.Context, s core.SubCategoryRule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sub_category_rules SET parent_category_id = ?, sub_category_name = ?, keyword = ?,
			match_type = ?, priority = ?, is_active = ?
		WHERE id = ?`,
		nullableID(s.ParentCategoryID), s.SubCategoryName, s.Keyword, string(s.MatchType), s.Priority, s.IsActive, s.ID)
	if err != nil {
		return fmt.Errorf("update sub category rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) DeleteSubCategoryRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sub_category_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sub category rule: %w", err)
	}
	return errIfNoRows(res)
}

func (r *SQLiteRepository) ListReductionTargets(ctx context.Context) ([]core.ReductionTarget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, work_name, is_reduction_target FROM reduction_targets ORDER BY work_name`)
	if err != nil {
		return nil, fmt.Errorf("list reduction targets: %w", err)
	}
	defer rows.Close()

	var out []core.ReductionTarget
	for rows.Next() {
		var t core.ReductionTarget
		if err := rows.Scan(&t.ID, &t.WorkName, &t.IsReductionTarget); err != nil {
			return nil, fmt.Errorf("scan reduction target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetReductionTarget upserts the per-work-name flag.
func (r *SQLiteRepository) SetReductionTarget(ctx context.Context, workName string, flag bool) error {
	if workName == "" {
		return core.ErrEmptyName
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reduction_targets (work_name, is_reduction_target) VALUES (?, ?)
		ON CONFLICT(work_name) DO UPDATE SET is_reduction_target = excluded.is_reduction_target,
			updated_at = CURRENT_TIMESTAMP`,
		workName, flag)
	if err != nil {
		return fmt.Errorf("set reduction target: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteReductionTarget(ctx context.Context, workName string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reduction_targets WHERE work_name = ?`, workName)
	if err != nil {
		return fmt.Errorf("delete reduction target: %w", err)
	}
	return errIfNoRows(res)
}

// ActiveKeywordRules implements rules.Repository.
func (r *SQLiteRepository) ActiveKeywordRules(ctx context.Context) ([]rules.KeywordRuleRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT k.keyword, c.name, k.match_type, k.priority
		FROM category_keywords k JOIN categories c ON c.id = k.category_id
		WHERE k.is_active = 1
		ORDER BY k.priority DESC, k.id`)
	if err != nil {
		return nil, fmt.Errorf("active keyword rules: %w", err)
	}
	defer rows.Close()

	var out []rules.KeywordRuleRow
	for rows.Next() {
		var row rules.KeywordRuleRow
		var mt string
		if err := rows.Scan(&row.Keyword, &row.CategoryName, &mt, &row.Priority); err != nil {
			return nil, fmt.Errorf("scan active keyword rule: %w", err)
		}
		row.MatchType = core.MatchType(mt)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ActiveUnitRules implements rules.Repository.
func (r *SQLiteRepository) ActiveUnitRules(ctx context.Context) ([]core.UnitTypeRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword, unit_type, match_type, priority, is_active
		FROM unit_type_rules WHERE is_active = 1
		ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("active unit rules: %w", err)
	}
	defer rows.Close()
	return scanUnitRules(rows)
}

// ActiveSubCategoryRules implements rules.Repository.
func (r *SQLiteRepository) ActiveSubCategoryRules(ctx context.Context) ([]core.SubCategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_category_id, sub_category_name, keyword, match_type, priority, is_active
		FROM sub_category_rules WHERE is_active = 1
		ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("active sub category rules: %w", err)
	}
	defer rows.Close()
	return scanSubCategoryRules(rows)
}

// ReductionCategories implements rules.Repository.
func (r *SQLiteRepository) ReductionCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM categories WHERE is_reduction_target = 1`)
	if err != nil {
		return nil, fmt.Errorf("reduction categories: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ReductionWorkNames implements rules.Repository.
func (r *SQLiteRepository) ReductionWorkNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT work_name FROM reduction_targets WHERE is_reduction_target = 1`)
	if err != nil {
		return nil, fmt.Errorf("reduction work names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanUnitRules(rows *sql.Rows) ([]core.UnitTypeRule, error) {
	var out []core.UnitTypeRule
	for rows.Next() {
		var u core.UnitTypeRule
		var ut, mt string
		if err := rows.Scan(&u.ID, &u.Keyword, &ut, &mt, &u.Priority, &u.IsActive); err != nil {
			return nil, fmt.Errorf("scan unit rule: %w", err)
		}
		u.UnitType = core.UnitType(ut)
		u.MatchType = core.MatchType(mt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanSubCategoryRules(rows *sql.Rows) ([]core.SubCategoryRule, error) {
	var out []core.SubCategoryRule
	for rows.Next() {
		var s core.SubCategoryRule
		var parent sql.NullInt64
		var mt string
		if err := rows.Scan(&s.ID, &parent, &s.SubCategoryName, &s.Keyword, &mt, &s.Priority, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan sub category rule: %w", err)
		}
		s.ParentCategoryID = parent.Int64
		s.MatchType = core.MatchType(mt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func errIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
