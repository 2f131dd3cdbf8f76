package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"worklens/internal/core"
	applog "worklens/internal/log"
)

// importBatchSize bounds the multi-row INSERT used by ReplaceAllRecords.
const importBatchSize = 1000

type (
	// WorkNameTotal is the raw per-work-item aggregate the analytics layer
	// classifies and enriches.
	WorkNameTotal struct {
		Category2 string
		WorkName  string
		Quantity  float64
		Amount    int64
	}

	// DailyTotal is one (date, work item) cell of the daily breakdown.
	DailyTotal struct {
		Date      string
		Category2 string
		WorkName  string
		Quantity  float64
	}
)

// ReplaceAllRecords atomically swaps the full work-record set for a new
// import. Inserts run in batches inside one transaction, so a failed import
// leaves the previous data intact.
func (r *SQLiteRepository) ReplaceAllRecords(ctx context.Context, records []core.WorkRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_records`); err != nil {
		return 0, fmt.Errorf("clear work records: %w", err)
	}

	inserted := 0
	for start := 0; start < len(records); start += importBatchSize {
		end := start + importBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertRecordBatch(ctx, tx, records[start:end]); err != nil {
			return 0, err
		}
		inserted += end - start
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Work records replaced",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpImport,
		applog.FieldRecords, inserted)
	return inserted, nil
}

func insertRecordBatch(ctx context.Context, tx *sql.Tx, batch []core.WorkRecord) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO work_records
		(work_date, staff_name, department, category1, category2, work_name, unit_price, quantity, total_amount, status, source_month)
		VALUES `)
	args := make([]any, 0, len(batch)*11)
	for i, rec := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			rec.WorkDate.String(), rec.StaffName, rec.Department,
			rec.Category1, rec.Category2, rec.WorkName,
			rec.UnitPrice, rec.Quantity, rec.TotalAmount,
			rec.Status, rec.SourceMonth)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert record batch: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count work records: %w", err)
	}
	return n, nil
}

// WorkNameTotals aggregates quantity and amount per (source sub-category,
// work name) under the given filter.
func (r *SQLiteRepository) WorkNameTotals(ctx context.Context, f core.Filter) ([]WorkNameTotal, error) {
	where, args := filterClause(f)
	rows, err := r.db.QueryContext(ctx, `
		SELECT category2, work_name, SUM(quantity), SUM(total_amount)
		FROM work_records`+where+`
		GROUP BY category2, work_name
		ORDER BY SUM(quantity) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("work name totals: %w", err)
	}
	defer rows.Close()

	var out []WorkNameTotal
	for rows.Next() {
		var t WorkNameTotal
		if err := rows.Scan(&t.Category2, &t.WorkName, &t.Quantity, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan work name total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DailyTotals aggregates quantity per (date, sub-category, work name) under
// the given filter, ordered by date.
func (r *SQLiteRepository) DailyTotals(ctx context.Context, f core.Filter) ([]DailyTotal, error) {
	where, args := filterClause(f)
	rows, err := r.db.QueryContext(ctx, `
		SELECT work_date, category2, work_name, SUM(quantity)
		FROM work_records`+where+`
		GROUP BY work_date, category2, work_name
		ORDER BY work_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var out []DailyTotal
	for rows.Next() {
		var t DailyTotal
		if err := rows.Scan(&t.Date, &t.Category2, &t.WorkName, &t.Quantity); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		// SQLite may return a full datetime depending on how the value was
		// bound; keep the date part only.
		if len(t.Date) > 10 {
			t.Date = t.Date[:10]
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) StaffNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT staff_name FROM work_records WHERE staff_name != '' ORDER BY staff_name`)
	if err != nil {
		return nil, fmt.Errorf("staff names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (r *SQLiteRepository) Category1Values(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category1 FROM work_records WHERE category1 != '' ORDER BY category1`)
	if err != nil {
		return nil, fmt.Errorf("category1 values: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// DateRange returns the earliest and latest work dates as YYYY-MM-DD, or
// empty strings when no records exist.
func (r *SQLiteRepository) DateRange(ctx context.Context) (string, string, error) {
	var min, max sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(work_date), MAX(work_date) FROM work_records`).Scan(&min, &max)
	if err != nil {
		return "", "", fmt.Errorf("date range: %w", err)
	}
	return trimDate(min.String), trimDate(max.String), nil
}

func trimDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func filterClause(f core.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Category1 != "" {
		conds = append(conds, "category1 = ?")
		args = append(args, f.Category1)
	}
	if f.Staff != "" {
		conds = append(conds, "staff_name = ?")
		args = append(args, f.Staff)
	}
	if !f.Start.IsZero() {
		conds = append(conds, "work_date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		conds = append(conds, "work_date <= ?")
		args = append(args, f.End.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
