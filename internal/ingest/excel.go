package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"worklens/internal/core"
	applog "worklens/internal/log"
)

// ReadWorkbook extracts work records from an uploaded xlsx workbook. Sheets
// without the monthly billing marker in their name are skipped entirely.
func ReadWorkbook(ctx context.Context, r io.Reader) ([]core.WorkRecord, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var records []core.WorkRecord
	matched := 0
	for _, sheetName := range wb.GetSheetList() {
		if !strings.Contains(sheetName, SheetMarker) {
			continue
		}
		matched++

		rows, err := wb.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		added := 0
		for i, row := range rows {
			if i < headerRows {
				continue
			}
			rec, ok := RecordFromRow(row, sheetName)
			if !ok {
				continue
			}
			records = append(records, rec)
			added++
		}
		slog.DebugContext(ctx, "Sheet processed", applog.FieldSheet, sheetName, applog.FieldRecords, added)
	}

	if matched == 0 {
		return nil, fmt.Errorf("workbook has no sheet matching %q", SheetMarker)
	}
	slog.InfoContext(ctx, "Workbook parsed",
		applog.FieldComponent, applog.ComponentIngest,
		"sheets", matched, applog.FieldRecords, len(records))
	return records, nil
}
