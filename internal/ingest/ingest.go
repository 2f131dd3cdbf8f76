// Package ingest turns monthly billing spreadsheets into work records. Two
// sources share the same row contract: uploaded xlsx workbooks and Google
// Sheets. Only sheets whose name contains the monthly billing marker are
// read.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"worklens/internal/core"
)

// SheetMarker selects the monthly billing sheets inside a workbook, which
// also carries summary and template sheets that must be ignored.
const SheetMarker = "月請求"

// headerRows is the number of leading rows to skip on every sheet.
const headerRows = 1

// Row layout of a monthly billing sheet, 0-based.
const (
	colWorkDate = iota
	colStaffName
	colDepartment
	colCategory1
	colCategory2
	colWorkName
	colUnitPrice
	colQuantity
	colTotalAmount
	colStatus
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01-02-06",
	"2006-01-02 15:04:05",
}

// RecordFromRow converts one sheet row into a work record. The second return
// is false for rows that must be skipped: an empty or unparseable date cell.
func RecordFromRow(cells []string, sheetName string) (core.WorkRecord, bool) {
	date, ok := parseDate(cell(cells, colWorkDate))
	if !ok {
		return core.WorkRecord{}, false
	}
	return core.WorkRecord{
		WorkDate:    date,
		StaffName:   cell(cells, colStaffName),
		Department:  cell(cells, colDepartment),
		Category1:   cell(cells, colCategory1),
		Category2:   cell(cells, colCategory2),
		WorkName:    cell(cells, colWorkName),
		UnitPrice:   parseInt(cell(cells, colUnitPrice)),
		Quantity:    parseFloat(cell(cells, colQuantity)),
		TotalAmount: parseInt(cell(cells, colTotalAmount)),
		Status:      cell(cells, colStatus),
		SourceMonth: sheetName,
	}, true
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func parseDate(s string) (core.Date, bool) {
	if s == "" {
		return core.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, true
		}
	}
	return core.Date{}, false
}

func parseInt(s string) int64 {
	s = cleanNumber(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Spreadsheets format integers as "1200.0" after a formula pass.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	s = cleanNumber(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func cleanNumber(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "¥")
	return strings.TrimSpace(s)
}
