package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) *bytes.Reader {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := wb.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else {
			if _, err := wb.NewSheet(name); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := wb.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

var header = []string{"作業日", "スタッフ", "部署", "分類1", "分類2", "作業名", "単価", "数量", "金額", "ステータス"}

func TestReadWorkbook(t *testing.T) {
	r := buildWorkbook(t, map[string][][]string{
		"2025年7月請求": {
			header,
			{"2025-07-01", "佐藤", "制作部", "通常", "施工", "施工ノート入力", "1200", "2", "2400", "完了"},
			{"", "", "", "", "", "小計", "", "", "2400", ""}, // summary row, skipped
			{"2025-07-02", "鈴木", "制作部", "通常", "MTG", "定例会議", "2000", "1.5", "3000", "完了"},
		},
		"集計": {
			{"このシートは無視される"},
		},
	})

	records, err := ReadWorkbook(context.Background(), r)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	if records[0].WorkName != "施工ノート入力" || records[0].SourceMonth != "2025年7月請求" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Quantity != 1.5 || records[1].TotalAmount != 3000 {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestReadWorkbookNoMarkerSheet(t *testing.T) {
	r := buildWorkbook(t, map[string][][]string{
		"テンプレート": {header},
	})
	if _, err := ReadWorkbook(context.Background(), r); err == nil {
		t.Fatalf("expected error for workbook without a billing sheet")
	}
}

func TestReadWorkbookNotXLSX(t *testing.T) {
	if _, err := ReadWorkbook(context.Background(), bytes.NewReader([]byte("plain text"))); err == nil {
		t.Fatalf("expected error for non-xlsx input")
	}
}
