package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting is one app_settings row. The value is stored as text and converted
// on read according to its declared type.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	ValueType   string `json:"value_type"`
	Description string `json:"description"`
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, value_type, description FROM app_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.ValueType, &s.Description); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SettingString implements rules.Repository. A missing row yields the
// fallback, not an error.
func (r *SQLiteRepository) SettingString(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) SettingInt(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := r.SettingString(ctx, key, strconv.Itoa(fallback))
	if err != nil {
		return fallback, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return n, nil
}

func (r *SQLiteRepository) SettingFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, err := r.SettingString(ctx, key, strconv.FormatFloat(fallback, 'f', -1, 64))
	if err != nil {
		return fallback, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("setting %q is not a number: %w", key, err)
	}
	return f, nil
}

func (r *SQLiteRepository) SettingBool(ctx context.Context, key string, fallback bool) (bool, error) {
	raw, err := r.SettingString(ctx, key, strconv.FormatBool(fallback))
	if err != nil {
		return fallback, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("setting %q is not a boolean: %w", key, err)
	}
	return b, nil
}

// SetSetting upserts a setting, keeping the declared type and description of
// an existing row when the caller passes them empty.
func (r *SQLiteRepository) SetSetting(ctx context.Context, s Setting) error {
	if s.Key == "" {
		return errors.New("empty setting key")
	}
	if s.ValueType == "" {
		s.ValueType = "string"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, value_type, description) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			value_type = excluded.value_type,
			description = CASE WHEN excluded.description = '' THEN app_settings.description ELSE excluded.description END,
			updated_at = CURRENT_TIMESTAMP`,
		s.Key, s.Value, s.ValueType, s.Description)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", s.Key, err)
	}
	return nil
}
