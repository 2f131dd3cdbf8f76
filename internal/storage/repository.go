package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"worklens/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for health checks.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// categoryIDByName resolves a category name; storage callers that only know
// the name (seeding, admin forms) go through this.
func (r *SQLiteRepository) categoryIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve category %q: %w", name, err)
	}
	return id, nil
}

// SeedCategory inserts the category unless one with the same name exists.
func (r *SQLiteRepository) SeedCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (name, color, badge_bg_color, badge_text_color, is_reduction_target, value_rank, sort_order)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM categories WHERE name = ?)`,
		c.Name, c.Color, c.BadgeBgColor, c.BadgeTextColor, c.IsReductionTarget, string(c.ValueRank), c.SortOrder, c.Name)
	if err != nil {
		return fmt.Errorf("seed category: %w", err)
	}
	return nil
}

// SeedKeywordRule inserts the keyword rule unless the category already has a
// rule with the same keyword.
func (r *SQLiteRepository) SeedKeywordRule(ctx context.Context, categoryName string, k core.KeywordRule) error {
	id, err := r.categoryIDByName(ctx, categoryName)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO category_keywords (category_id, keyword, match_type, priority, is_active)
		SELECT ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM category_keywords WHERE category_id = ? AND keyword = ?)`,
		id, k.Keyword, string(k.MatchType), k.Priority, k.IsActive, id, k.Keyword)
	if err != nil {
		return fmt.Errorf("seed keyword rule: %w", err)
	}
	return nil
}

// SeedUnitRule inserts the unit rule unless one with the same keyword exists.
func (r *SQLiteRepository) SeedUnitRule(ctx context.Context, u core.UnitTypeRule) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unit_type_rules (keyword, unit_type, match_type, priority, is_active)
		SELECT ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM unit_type_rules WHERE keyword = ?)`,
		u.Keyword, string(u.UnitType), string(u.MatchType), u.Priority, u.IsActive, u.Keyword)
	if err != nil {
		return fmt.Errorf("seed unit rule: %w", err)
	}
	return nil
}

// SeedSubCategoryRule inserts the rule unless one with the same sub-category
// and keyword exists. An empty parent name means the rule applies under any
// parent category.
func (r *SQLiteRepository) SeedSubCategoryRule(ctx context.Context, parentCategoryName string, s core.SubCategoryRule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	var parentID sql.NullInt64
	if parentCategoryName != "" {
		id, err := r.categoryIDByName(ctx, parentCategoryName)
		if err != nil {
			return err
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sub_category_rules (parent_category_id, sub_category_name, keyword, match_type, priority, is_active)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM sub_category_rules WHERE sub_category_name = ? AND keyword = ?)`,
		parentID, s.SubCategoryName, s.Keyword, string(s.MatchType), s.Priority, s.IsActive, s.SubCategoryName, s.Keyword)
	if err != nil {
		return fmt.Errorf("seed sub category rule: %w", err)
	}
	return nil
}

// SeedSetting inserts the setting unless the key exists. Existing values are
// never overwritten by seeding.
func (r *SQLiteRepository) SeedSetting(ctx context.Context, key, value, valueType, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, value_type, description)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM app_settings WHERE key = ?)`,
		key, value, valueType, description, key)
	if err != nil {
		return fmt.Errorf("seed setting: %w", err)
	}
	return nil
}
